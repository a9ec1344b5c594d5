package homefeed

import "fmt"

const priceCurrency = "TMT"

// FormatPriceText формирует текст цены по диапазону min/max.
func FormatPriceText(priceMin, priceMax *float64) string {
	formattedMin := formatPriceNumber(priceMin)
	formattedMax := formatPriceNumber(priceMax)

	switch {
	case formattedMin != "" && formattedMax != "":
		if formattedMin == formattedMax {
			return fmt.Sprintf("%s %s", formattedMin, priceCurrency)
		}
		return fmt.Sprintf("%s–%s %s", formattedMin, formattedMax, priceCurrency)
	case formattedMin != "":
		return fmt.Sprintf("от %s %s", formattedMin, priceCurrency)
	case formattedMax != "":
		return fmt.Sprintf("до %s %s", formattedMax, priceCurrency)
	}
	return "Цена по запросу"
}

// Цена всегда показывается целым числом, дробная часть округляется.
func formatPriceNumber(value *float64) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%.0f", *value)
}
