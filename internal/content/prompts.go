// Package content generates tweet text with an LLM. Prompt construction
// lives here; the OpenAI plumbing is in generator.go.
package content

import (
	"fmt"
	"strings"
)

// languageNames maps supported language codes to the name used in prompts.
var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
}

// SupportedLanguage reports whether code is a language the generator can
// write in.
func SupportedLanguage(code string) bool {
	_, ok := languageNames[code]
	return ok
}

// SupportedStyle reports whether the style is one the prompts know how to
// ask for.
func SupportedStyle(style string) bool {
	switch style {
	case "engaging", "professional", "casual", "educational", "humorous", "informative", "helpful":
		return true
	}
	return false
}

// systemPrompt frames every request. The model is told to return only the
// tweet text so no post-processing has to strip pleasantries.
func systemPrompt(language string) string {
	name := languageNames[language]
	if name == "" {
		name = "English"
	}
	return fmt.Sprintf(
		"You are a social media expert who writes compelling tweets. "+
			"Write in %s. Respond with only the tweet text, no quotes, no commentary.",
		name,
	)
}

func tweetPrompt(topic, style, userContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a tweet about: %s\n\n", topic)
	fmt.Fprintf(&b, "The tone should be %s. The tweet must be at most 280 characters. ", style)
	b.WriteString("Do not use hashtags unless they add real value.")
	if userContext != "" {
		fmt.Fprintf(&b, "\n\nContext about the author: %s", userContext)
	}
	return b.String()
}

func threadPrompt(topic, style string, numTweets int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a Twitter thread of exactly %d tweets about: %s\n\n", numTweets, topic)
	fmt.Fprintf(&b, "The tone should be %s. Each tweet must be at most 280 characters.\n", style)
	b.WriteString("Number each tweet like \"1/\" and separate tweets with a blank line.")
	return b.String()
}

func replyPrompt(original, style, userContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a reply to this tweet:\n\n%q\n\n", original)
	fmt.Fprintf(&b, "The tone should be %s. The reply must be at most 280 characters ", style)
	b.WriteString("and add something to the conversation.")
	if userContext != "" {
		fmt.Fprintf(&b, "\n\nContext about the author: %s", userContext)
	}
	return b.String()
}
