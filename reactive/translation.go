package reactive

// Translator looks up the text for key in lang.
type Translator interface {
	Translate(lang, key string) string
}

type TranslatorFunc func(lang, key string) string

func (f TranslatorFunc) Translate(lang, key string) string { return f(lang, key) }

// Catalog maps a language to its key/text table. Missing entries translate
// to the key itself.
type Catalog map[string]map[string]string

func (c Catalog) Translate(lang, key string) string {
	if text, ok := c[lang][key]; ok {
		return text
	}
	return key
}
