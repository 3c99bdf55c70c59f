package llm

import "fmt"

const defaultLocale = "pt-BR"

func buildSummaryPrompt(text, locale string) string {
	if locale == "" {
		locale = defaultLocale
	}
	return fmt.Sprintf(`You are an assistant specialized in summarizing academic PDF documents.
Read the text below and write a clear, objective and well organized summary.
Do not just shorten the text: synthesize it. Identify the central ideas, connect themes that
appear across different sections or documents, and state the conclusions they support.
Write the whole answer in the language of locale %s.

TEXT:
%s
`, locale, text)
}
