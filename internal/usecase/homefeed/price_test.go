package homefeed

import "testing"

func TestFormatPriceText(t *testing.T) {
	cases := []struct {
		name string
		min  *float64
		max  *float64
		want string
	}{
		{name: "диапазон", min: ptrFloat(100), max: ptrFloat(250), want: "100–250 TMT"},
		{name: "совпавшие границы", min: ptrFloat(100), max: ptrFloat(100), want: "100 TMT"},
		{name: "только минимум", min: ptrFloat(50), want: "от 50 TMT"},
		{name: "только максимум", max: ptrFloat(500), want: "до 500 TMT"},
		{name: "без цены", want: "Цена по запросу"},
		{name: "дробная цена округляется", min: ptrFloat(99.4), want: "от 99 TMT"},
		{name: "округление к чётному", min: ptrFloat(12.5), want: "от 12 TMT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FormatPriceText(tc.min, tc.max)
			if got != tc.want {
				t.Fatalf("ожидали %q, получили %q", tc.want, got)
			}
		})
	}
}
