package i18n

import "strings"

// Lang represents a supported language
type Lang string

const (
	EN Lang = "en"
	FA Lang = "fa"
)

// Translations holds the chat panel strings for a language
type Translations struct {
	// Panel
	PanelTitle       string
	InputPlaceholder string
	ToggleHint       string
	ClosedHint       string
	YouLabel         string
	PeerLabel        string

	// Notices
	SendError string

	// Operator availability
	StatusOnline  string
	StatusOffline string
	StatusUnknown string

	// RTL is true for right-to-left scripts
	RTL bool
}

var translations = map[Lang]Translations{
	EN: {
		PanelTitle:       "Chat with me",
		InputPlaceholder: "Type a message...",
		ToggleHint:       "ctrl+o open/close • enter send • ctrl+c quit",
		ClosedHint:       "Chat is closed. Press ctrl+o to open it.",
		YouLabel:         "You",
		PeerLabel:        "Saeed",

		SendError: "Sorry, your message could not be delivered. Please try again later.",

		StatusOnline:  "Online",
		StatusOffline: "Offline",
		StatusUnknown: "Status unknown",
	},
	FA: {
		PanelTitle:       "گفتگو با من",
		InputPlaceholder: "پیام خود را بنویسید...",
		ToggleHint:       "ctrl+o باز/بستن • enter ارسال • ctrl+c خروج",
		ClosedHint:       "گفتگو بسته است. برای باز کردن ctrl+o را بزنید.",
		YouLabel:         "شما",
		PeerLabel:        "سعید",

		SendError: "متاسفانه پیام شما ارسال نشد. لطفا بعدا دوباره تلاش کنید.",

		StatusOnline:  "آنلاین",
		StatusOffline: "آفلاین",
		StatusUnknown: "وضعیت نامشخص",

		RTL: true,
	},
}

// errorTranslations localizes relay error responses.
var errorTranslations = map[Lang]map[string]string{
	FA: {
		"invalid request body":                "درخواست نامعتبر است",
		"message is required":                 "متن پیام الزامی است",
		"message too long":                    "پیام بیش از حد طولانی است",
		"sessionId is required":               "شناسه جلسه الزامی است",
		"rate limit exceeded":                 "تعداد درخواست ها بیش از حد مجاز است",
		"internal server error":               "خطای داخلی سرور",
		"missing authorization header":        "توکن احراز هویت ارسال نشده است",
		"invalid authorization header format": "قالب توکن احراز هویت نامعتبر است",
		"invalid token":                       "توکن نامعتبر است",
		"invalid credentials":                 "رمز عبور اشتباه است",
		"session not found":                   "جلسه یافت نشد",
		"text is required":                    "متن پاسخ الزامی است",
		"operator login disabled":             "ورود اپراتور غیرفعال است",
		"presence unavailable":                "وضعیت اپراتور در دسترس نیست",
	},
}

// Get returns translations for the given language
func Get(lang Lang) Translations {
	if t, ok := translations[lang]; ok {
		return t
	}
	return translations[EN]
}

// GetLang parses a language string, defaulting to English
func GetLang(s string) Lang {
	if lang, ok := Parse(s); ok {
		return lang
	}
	return EN
}

// Parse reports whether s names a supported language.
func Parse(s string) (Lang, bool) {
	switch Lang(strings.ToLower(strings.TrimSpace(s))) {
	case EN:
		return EN, true
	case FA:
		return FA, true
	}
	return "", false
}

// SupportedLanguages returns all supported languages
func SupportedLanguages() []Lang {
	return []Lang{EN, FA}
}

// TranslateError returns the localized form of an English error message.
// Unknown messages are returned unchanged.
func TranslateError(lang Lang, msg string) string {
	if table, ok := errorTranslations[lang]; ok {
		if translated, ok := table[msg]; ok {
			return translated
		}
	}
	return msg
}
