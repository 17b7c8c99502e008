package models

// ArticleContent is the text of one law article as retrieved from the statute source.
// (LawCode, ArticleNumber) identifies it and is the cache key.
type ArticleContent struct {
	LawCode       string `json:"law_code"`
	ArticleNumber string `json:"article_number"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
}

// ArticleKey identifies an article across questions.
type ArticleKey struct {
	LawCode       string
	ArticleNumber string
}

// String returns the cache representation of the key, e.g. "CO-266g".
func (k ArticleKey) String() string {
	return k.LawCode + "-" + k.ArticleNumber
}

// Key returns the identity key of the article.
func (a ArticleContent) Key() ArticleKey {
	return ArticleKey{LawCode: a.LawCode, ArticleNumber: a.ArticleNumber}
}

// FailedArticle builds an error-tagged article slot.
func FailedArticle(lawCode, articleNumber, message string) ArticleContent {
	return ArticleContent{
		LawCode:       lawCode,
		ArticleNumber: articleNumber,
		Success:       false,
		Error:         message,
	}
}
