package i18n

import "strings"

// Translator looks up a localized string by key.
type Translator interface {
	Translate(key, locale string) string
}

// Catalog is an in-memory translation table: locale -> key -> text.
// Unknown locales fall back to English; unknown keys fall back to the key
// itself so a missing entry is visible rather than silent.
type Catalog map[string]map[string]string

const fallbackLocale = "en"

// Default returns the catalog for the auth mail templates and flash messages.
func Default() Catalog {
	return Catalog{
		"en": {
			"mail.otp.subject":      "Your login code",
			"mail.otp.body":         "Your one-time code is %s. It expires in %d minutes.",
			"mail.otp.link":         "Or sign in directly: %s",
			"mail.security.subject": "New sign-in to your account",
			"mail.security.body":    "A sign-in to your account was detected.\nTime: %s\nIP address: %s\nDevice: %s\nLocation: %s",
			"mail.welcome.subject":  "Welcome",
			"mail.welcome.body":     "Welcome, %s! Your account is ready.",
			"flash.logged_in":       "Signed in successfully",
			"flash.logged_out":      "Signed out successfully",
			"flash.switched":        "Signed out and switched to your next account",
			"flash.otp_sent":        "A verification code was sent to your email",
			"flash.otp_resent":      "The verification code was resent to your email",
			"flash.oauth_failed":    "Something went wrong while signing in with %s",
		},
		"ar": {
			"mail.otp.subject":      "رمز تسجيل الدخول الخاص بك",
			"mail.otp.body":         "رمز التحقق الخاص بك هو %s. تنتهي صلاحيته خلال %d دقائق.",
			"mail.otp.link":         "أو سجل الدخول مباشرة: %s",
			"mail.security.subject": "تسجيل دخول جديد إلى حسابك",
			"mail.security.body":    "تم رصد تسجيل دخول إلى حسابك.\nالوقت: %s\nعنوان IP: %s\nالجهاز: %s\nالموقع: %s",
			"mail.welcome.subject":  "مرحباً",
			"mail.welcome.body":     "مرحباً %s! حسابك جاهز.",
			"flash.logged_in":       "تم تسجيل الدخول بنجاح",
			"flash.logged_out":      "تم تسجيل الخروج بنجاح",
			"flash.switched":        "تم تسجيل الخروج وتسجيل الدخول للحساب التالي",
			"flash.otp_sent":        "تم إرسال رمز التحقق إلى بريدك الإلكتروني",
			"flash.otp_resent":      "تم إعادة إرسال رمز التحقق إلى بريدك الإلكتروني",
			"flash.oauth_failed":    "حدث خطأ أثناء تسجيل الدخول باستخدام %s",
		},
	}
}

// Translate implements Translator.
func (c Catalog) Translate(key, locale string) string {
	locale = normalize(locale)
	if m, ok := c[locale]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	if s, ok := c[fallbackLocale][key]; ok {
		return s
	}
	return key
}

// normalize reduces a locale tag like "ar-SA" or an Accept-Language entry to
// its base language.
func normalize(locale string) string {
	locale = strings.TrimSpace(strings.ToLower(locale))
	if locale == "" {
		return fallbackLocale
	}
	if i := strings.IndexAny(locale, "-_,;"); i > 0 {
		locale = locale[:i]
	}
	return locale
}
