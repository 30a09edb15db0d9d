package core

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/articles/models"
)

const maxTags = 10

// ArticleInput carries client-writable fields. A nil field was not sent.
type ArticleInput struct {
	Title   *string        `json:"title"`
	Content *string        `json:"content"`
	Excerpt *string        `json:"excerpt"`
	Status  *models.Status `json:"status"`
	Tags    *string        `json:"tags"`
}

func (in ArticleInput) applyTo(article *models.Article) {
	if in.Title != nil {
		article.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		article.Content = strings.TrimSpace(*in.Content)
	}
	if in.Excerpt != nil {
		article.Excerpt = strings.TrimSpace(*in.Excerpt)
	}
	if in.Status != nil {
		article.Status = *in.Status
	}
	if in.Tags != nil {
		article.Tags = NormalizeTags(*in.Tags)
	}
}

func (in ArticleInput) requireFields() *ValidationError {
	fields := map[string]string{}
	if in.Title == nil {
		fields["title"] = "This field is required."
	}
	if in.Content == nil {
		fields["content"] = "This field is required."
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

type articleFields struct {
	Title   string        `json:"title"`
	Content string        `json:"content"`
	Excerpt string        `json:"excerpt"`
	Status  models.Status `json:"status"`
	Tags    string        `json:"tags"`
}

var tagCount = validation.By(func(value any) error {
	tags, _ := value.(string)
	if tags != "" && len(strings.Split(tags, ",")) > maxTags {
		return errors.New("Maximum 10 tags allowed.")
	}
	return nil
})

// validateArticle checks the normalized article. excludeID is the article
// being updated so it does not collide with its own title.
func (c *Core) validateArticle(ctx context.Context, article *models.Article, excludeID int64) error {
	f := articleFields{
		Title:   article.Title,
		Content: article.Content,
		Excerpt: article.Excerpt,
		Status:  article.Status,
		Tags:    article.Tags,
	}

	err := validation.ValidateStruct(&f,
		validation.Field(&f.Title,
			validation.Required.Error("This field may not be blank."),
			validation.RuneLength(5, 200).Error("Title must be between 5 and 200 characters long."),
		),
		validation.Field(&f.Content,
			validation.Required.Error("This field may not be blank."),
			validation.RuneLength(10, 0).Error("Content must be at least 10 characters long."),
		),
		validation.Field(&f.Excerpt,
			validation.RuneLength(0, 500).Error("Ensure this field has no more than 500 characters."),
		),
		validation.Field(&f.Status,
			validation.Required.Error("This field may not be blank."),
			validation.In(models.StatusDraft, models.StatusPublished, models.StatusArchived).
				Error("Not a valid choice."),
		),
		validation.Field(&f.Tags,
			tagCount,
			validation.RuneLength(0, 200).Error("Ensure this field has no more than 200 characters."),
		),
	)

	fields := map[string]string{}
	if err != nil {
		var errs validation.Errors
		if !errors.As(err, &errs) {
			return xerrors.New(err)
		}
		for field, fieldErr := range errs {
			fields[field] = fieldErr.Error()
		}
	}

	if _, bad := fields["title"]; !bad {
		exists, err := c.articles.TitleExists(ctx, article.Title, excludeID)
		if err != nil {
			return err
		}
		if exists {
			fields["title"] = "An article with this title already exists."
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
