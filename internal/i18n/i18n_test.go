package i18n

import (
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"
)

func TestMatch(t *testing.T) {
	cases := map[string]language.Tag{
		"":                        language.English,
		"ja-JP,ja;q=0.9,en;q=0.8": language.Japanese,
		"ru":                      language.Russian,
		"fr-FR":                   language.English,
		"en-US,en;q=0.9":          language.English,
	}
	for header, want := range cases {
		if got := Match(header); got != want {
			t.Fatalf("Match(%q) = %v, want %v", header, got, want)
		}
	}
}

func TestPrinterTranslates(t *testing.T) {
	en := NewPrinter(language.English).Sprintf(CheckInOutOfRange, 3.456)
	if en != "You are 3.46 km away from the office. Check-in not registered." {
		t.Fatalf("unexpected english message %q", en)
	}
	ru := NewPrinter(language.Russian).Sprintf(CheckedIn, "09:12")
	if ru != "Добро пожаловать! Вы отметились в 09:12" {
		t.Fatalf("unexpected russian message %q", ru)
	}
	// untranslated keys fall back to the English format string
	ja := NewPrinter(language.Japanese).Sprintf(QRNotDecoded)
	if ja != QRNotDecoded {
		t.Fatalf("unexpected fallback %q", ja)
	}
}

func TestFromRequestPrefersCookie(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Accept-Language", "ru")
	r.Header.Set("Cookie", "lang=ja")
	if got := FromRequest(r).Sprintf(CheckInFirst); got != "先に出勤を記録してください。" {
		t.Fatalf("cookie language not used: %q", got)
	}
}
