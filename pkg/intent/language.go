package intent

// DefaultLanguage is the language every session starts in.
const DefaultLanguage = "en"

// Languages lists the conversation languages the assistant speaks, by ISO-639-1 code.
var Languages = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"ar": "Arabic",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"zh": "Chinese",
	"ja": "Japanese",
	"hi": "Hindi",
}

// languageOrder fixes the order languages are listed in the prompt.
var languageOrder = []string{"en", "es", "fr", "ar", "de", "it", "pt", "zh", "ja", "hi"}

// SupportedLanguage reports whether code is one of Languages.
func SupportedLanguage(code string) bool {
	_, ok := Languages[code]
	return ok
}
