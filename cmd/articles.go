package main

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/siahsang/articles/internal/core"
	"github.com/siahsang/articles/internal/filter"
	"github.com/siahsang/articles/internal/presenter"
	"github.com/siahsang/articles/internal/validator"
)

func (app *application) listArticles(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	query := r.URL.Query()

	listing := app.readListing(query, v)
	articleFilter := filter.ParseArticleFilter(query, v)
	if !v.IsValid() {
		app.badRequestResponse(w, r, &AppError{ErrorDetails: v.Errors})
		return
	}

	page, err := app.core.ListArticles(r.Context(), app.auth.GetIdentity(r), articleFilter, listing)
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	app.writePage(w, r, page)
}

func (app *application) createArticle(w http.ResponseWriter, r *http.Request) {
	var input core.ArticleInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: err.Error(),
			ErrorStack:   err,
		})
		return
	}

	article, err := app.core.CreateArticle(r.Context(), app.auth.GetIdentity(r), input)
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/api/articles/"+strconv.FormatInt(article.ID, 10))

	response := envelope{"article": presenter.Article(presenter.ActionCreate, article)}
	if err := app.writeJSON(w, http.StatusCreated, response, headers); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

// showArticle serves GET /api/articles/:id. The named collection queries
// share the path segment with article ids, so they are dispatched first.
func (app *application) showArticle(w http.ResponseWriter, r *http.Request) {
	switch httprouter.ParamsFromContext(r.Context()).ByName("id") {
	case "featured":
		app.featuredArticles(w, r)
		return
	case "my_articles":
		app.myArticles(w, r)
		return
	case "by_author":
		app.articlesByAuthor(w, r)
		return
	case "by_tag":
		app.articlesByTag(w, r)
		return
	case "stats":
		app.articleStats(w, r)
		return
	}

	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	article, err := app.core.GetArticle(r.Context(), app.auth.GetIdentity(r), id)
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	response := envelope{"article": presenter.Article(presenter.ActionRetrieve, article)}
	if err := app.writeJSON(w, http.StatusOK, response, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) updateArticle(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := app.readIDParam(r)
		if err != nil {
			app.notFoundResponse(w, r)
			return
		}

		var input core.ArticleInput
		if err := app.readJSON(w, r, &input); err != nil {
			app.badRequestResponse(w, r, &AppError{
				ErrorMessage: err.Error(),
				ErrorStack:   err,
			})
			return
		}

		article, err := app.core.UpdateArticle(r.Context(), app.auth.GetIdentity(r), id, input, partial)
		if err != nil {
			app.coreErrorResponse(w, r, err)
			return
		}

		response := envelope{"article": presenter.Article(presenter.ActionUpdate, article)}
		if err := app.writeJSON(w, http.StatusOK, response, nil); err != nil {
			app.internalErrorResponse(w, r, err)
		}
	}
}

func (app *application) deleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	if err := app.core.DeleteArticle(r.Context(), app.auth.GetIdentity(r), id); err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) toggleFeatured(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	article, err := app.core.ToggleFeatured(r.Context(), app.auth.GetIdentity(r), id)
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	message := "Article unfeatured successfully"
	if article.Featured {
		message = "Article featured successfully"
	}
	response := envelope{"featured": article.Featured, "message": message}
	if err := app.writeJSON(w, http.StatusOK, response, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) featuredArticles(w http.ResponseWriter, r *http.Request) {
	app.namedQuery(w, r, func(listing core.Listing) (*core.ArticlePage, error) {
		return app.core.FeaturedArticles(r.Context(), app.auth.GetIdentity(r), listing)
	})
}

func (app *application) myArticles(w http.ResponseWriter, r *http.Request) {
	app.namedQuery(w, r, func(listing core.Listing) (*core.ArticlePage, error) {
		return app.core.MyArticles(r.Context(), app.auth.GetIdentity(r), listing)
	})
}

func (app *application) articlesByAuthor(w http.ResponseWriter, r *http.Request) {
	author := app.readString(r.URL.Query(), "author", "")
	app.namedQuery(w, r, func(listing core.Listing) (*core.ArticlePage, error) {
		return app.core.ArticlesByAuthor(r.Context(), app.auth.GetIdentity(r), author, listing)
	})
}

func (app *application) articlesByTag(w http.ResponseWriter, r *http.Request) {
	tag := app.readString(r.URL.Query(), "tag", "")
	app.namedQuery(w, r, func(listing core.Listing) (*core.ArticlePage, error) {
		return app.core.ArticlesByTag(r.Context(), app.auth.GetIdentity(r), tag, listing)
	})
}

func (app *application) articleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := app.core.Stats(r.Context(), app.auth.GetIdentity(r))
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"stats": stats}, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

// namedQuery runs a fixed collection query. Only ordering and paging are
// read from the request; field filters do not apply.
func (app *application) namedQuery(w http.ResponseWriter, r *http.Request, run func(core.Listing) (*core.ArticlePage, error)) {
	v := validator.New()
	listing := app.readListing(r.URL.Query(), v)
	if !v.IsValid() {
		app.badRequestResponse(w, r, &AppError{ErrorDetails: v.Errors})
		return
	}

	page, err := run(listing)
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	app.writePage(w, r, page)
}

func (app *application) readListing(query url.Values, v *validator.Validator) core.Listing {
	limit := app.readInt(query, "limit", filter.DefaultLimit, v)
	offset := app.readInt(query, "offset", 0, v)

	page := filter.NewFilter(limit, offset)
	filter.ValidateFilters(page, v)

	ordering, err := filter.ParseOrdering(app.readString(query, "ordering", ""))
	if err != nil {
		v.AddError("ordering", err.Error())
	}

	return core.Listing{Ordering: ordering, Page: page}
}

func (app *application) writePage(w http.ResponseWriter, r *http.Request, page *core.ArticlePage) {
	response := envelope{
		"count":   page.Metadata.Count,
		"limit":   page.Metadata.Limit,
		"offset":  page.Metadata.Offset,
		"results": presenter.Articles(page.Articles),
	}
	if err := app.writeJSON(w, http.StatusOK, response, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}
