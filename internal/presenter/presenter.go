// Package presenter shapes articles for responses. Each handler action maps
// to one view: collections get the list view without content, single
// article actions get the detail view.
package presenter

import (
	"time"

	"github.com/siahsang/articles/internal/utils/collectionutils"
	"github.com/siahsang/articles/internal/utils/functional"
	"github.com/siahsang/articles/models"
)

type Action string

const (
	ActionList     Action = "list"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionRetrieve Action = "retrieve"
)

type Shape int

const (
	ListShape Shape = iota
	DetailShape
)

var shapeByAction = map[Action]Shape{
	ActionList:     ListShape,
	ActionCreate:   DetailShape,
	ActionUpdate:   DetailShape,
	ActionRetrieve: DetailShape,
}

// ShapeFor falls back to the list view, which never carries content.
func ShapeFor(action Action) Shape {
	return collectionutils.GetOrDefault(shapeByAction, action, ListShape)
}

type AuthorView struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ArticleListView struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	Excerpt     string        `json:"excerpt"`
	Author      AuthorView    `json:"author"`
	Status      models.Status `json:"status"`
	Featured    bool          `json:"featured"`
	ViewCount   int64         `json:"view_count"`
	Tags        string        `json:"tags"`
	TagsList    []string      `json:"tags_list"`
	ReadingTime int           `json:"reading_time"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	PublishedAt *time.Time    `json:"published_at"`
}

type ArticleDetailView struct {
	ArticleListView
	Content     string `json:"content"`
	WordCount   int    `json:"word_count"`
	IsPublished bool   `json:"is_published"`
}

// Article renders a single article in the shape its action calls for.
func Article(action Action, article *models.Article) any {
	if ShapeFor(action) == DetailShape {
		return detailView(article)
	}
	return listView(article)
}

// Articles renders a collection. The result is never nil so it encodes as [].
func Articles(articles []*models.Article) []ArticleListView {
	return functional.Map(articles, listView)
}

func listView(a *models.Article) ArticleListView {
	return ArticleListView{
		ID:      a.ID,
		Title:   a.Title,
		Slug:    a.Slug,
		Excerpt: a.Excerpt,
		Author: AuthorView{
			ID:        a.Author.ID,
			Username:  a.Author.Username,
			FirstName: a.Author.FirstName,
			LastName:  a.Author.LastName,
		},
		Status:      a.Status,
		Featured:    a.Featured,
		ViewCount:   a.ViewCount,
		Tags:        a.Tags,
		TagsList:    a.TagsList(),
		ReadingTime: a.ReadingTime(),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		PublishedAt: a.PublishedAt,
	}
}

func detailView(a *models.Article) ArticleDetailView {
	return ArticleDetailView{
		ArticleListView: listView(a),
		Content:         a.Content,
		WordCount:       a.WordCount(),
		IsPublished:     a.IsPublished(),
	}
}
