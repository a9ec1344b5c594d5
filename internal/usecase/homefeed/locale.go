package homefeed

import "strings"

// ResolveLanguage определяет язык выдачи: сначала заголовок
// Accept-Language, затем query-параметр lang, иначе язык по умолчанию.
func (s *Service) ResolveLanguage(req Request) string {
	supported := make(map[string]struct{}, len(s.cfg.SupportedLangs))
	for _, lang := range s.cfg.SupportedLangs {
		supported[lang] = struct{}{}
	}

	if lang := matchAcceptLanguage(req.AcceptLanguage, supported); lang != "" {
		return lang
	}
	if short := shortLang(req.LangParam); short != "" {
		if _, ok := supported[short]; ok {
			return short
		}
	}
	return s.cfg.DefaultLang
}

func matchAcceptLanguage(header string, supported map[string]struct{}) string {
	if header == "" {
		return ""
	}
	for _, part := range strings.Split(header, ",") {
		candidate := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if candidate == "" {
			continue
		}
		short := shortLang(candidate)
		if _, ok := supported[short]; ok {
			return short
		}
	}
	return ""
}

func shortLang(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	return strings.ToLower(strings.SplitN(code, "-", 2)[0])
}
