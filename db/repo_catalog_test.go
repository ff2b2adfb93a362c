package db_test

import (
	"context"
	"errors"
	"testing"

	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/models"
	"Gin_postgres_redis_library_dashboard/testutil"
)

func TestAuthorsCreateAndSearch(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	a := db.Actor{IP: "127.0.0.1"}

	if _, err := r.CreateAuthor(ctx, a, db.AuthorInput{Name: "   "}); err == nil {
		t.Fatal("Expected validation error for empty name")
	} else {
		var ve *db.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
	}

	for _, name := range []string{"Jane Austen", "Stephen King", "Agatha Christie"} {
		if _, err := r.CreateAuthor(ctx, a, db.AuthorInput{Name: name}); err != nil {
			t.Fatalf("CreateAuthor %s: %v", name, err)
		}
	}
	king, err := r.CreateAuthor(ctx, a, db.AuthorInput{Name: "  Haruki Murakami ", Biography: "Japanese writer"})
	if err != nil {
		t.Fatalf("CreateAuthor: %v", err)
	}
	if king.Name != "Haruki Murakami" {
		t.Errorf("Expected trimmed name, got %q", king.Name)
	}

	all, err := r.ListAuthors(ctx, "", 1, 50)
	if err != nil {
		t.Fatalf("ListAuthors: %v", err)
	}
	if all.Total != 4 || all.Items[0].Name != "Agatha Christie" {
		t.Errorf("Expected 4 authors sorted by name, got %d first=%q", all.Total, all.Items[0].Name)
	}

	found, err := r.ListAuthors(ctx, "KING", 1, 50)
	if err != nil {
		t.Fatalf("ListAuthors: %v", err)
	}
	if found.Total != 1 || found.Items[0].Name != "Stephen King" {
		t.Errorf("Expected case-insensitive match on Stephen King, got %+v", found.Items)
	}

	got, err := r.GetAuthor(ctx, king.ID)
	if err != nil || got.Biography != "Japanese writer" {
		t.Errorf("GetAuthor: %+v %v", got, err)
	}
	if _, err := r.GetAuthor(ctx, "missing"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	logs, err := r.ListAuditLogs(ctx, db.AuditQuery{EntityType: "author"})
	if err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	if logs.Total != 4 {
		t.Errorf("Expected 4 author audit rows, got %d", logs.Total)
	}
}

func TestCategoryNamesAreUniqueIgnoringCase(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	a := db.Actor{}

	if _, err := r.CreateCategory(ctx, a, db.CategoryInput{Name: "Fantasy"}); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	_, err := r.CreateCategory(ctx, a, db.CategoryInput{Name: " fantasy "})
	var ve *db.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError for duplicate name, got %v", err)
	}
	if _, err := r.CreateCategory(ctx, a, db.CategoryInput{Name: ""}); !errors.As(err, &ve) {
		t.Errorf("Expected ValidationError for empty name, got %v", err)
	}
	cats, err := r.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 1 {
		t.Errorf("Expected 1 category, got %d", len(cats))
	}
}

func TestCategoryBookCountsAndDelete(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	a := db.Actor{}

	fantasy, err := r.CreateCategory(ctx, a, db.CategoryInput{Name: "Fantasy"})
	if err != nil {
		t.Fatal(err)
	}
	classics, err := r.CreateCategory(ctx, a, db.CategoryInput{Name: "Classics"})
	if err != nil {
		t.Fatal(err)
	}
	empty, err := r.CreateCategory(ctx, a, db.CategoryInput{Name: "Poetry"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := r.CreateBook(ctx, a, db.BookInput{
		Title: "A Game of Thrones", ISBN: "9780553103540", Price: 9.99,
		CategoryIDs: []string{fantasy.ID, classics.ID},
	})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if _, err := r.CreateBook(ctx, a, db.BookInput{
		Title: "Emma", ISBN: "9780141439587", Price: 7.5,
		CategoryIDs: []string{classics.ID},
	}); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	cats, err := r.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	counts := map[string]int64{}
	for _, c := range cats {
		counts[c.Name] = c.BookCount
	}
	if counts["Fantasy"] != 1 || counts["Classics"] != 2 || counts["Poetry"] != 0 {
		t.Errorf("Unexpected book counts %v", counts)
	}

	if err := r.DeleteCategory(ctx, a, classics.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	var links int64
	r.DB.Model(&models.BookCategory{}).Where("category_id = ?", classics.ID).Count(&links)
	if links != 0 {
		t.Errorf("Expected category links removed, got %d", links)
	}
	book, err := r.GetBook(ctx, got.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if len(book.Categories) != 1 || book.Categories[0].ID != fantasy.ID {
		t.Errorf("Expected only Fantasy left on the book, got %+v", book.Categories)
	}

	if err := r.DeleteCategory(ctx, a, classics.ID); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
	if err := r.DeleteCategory(ctx, a, empty.ID); err != nil {
		t.Errorf("DeleteCategory empty: %v", err)
	}
}

func TestCreateBookRejectsUnknownCategory(t *testing.T) {
	r := testutil.NewRepo(t)
	ctx := context.Background()
	cat, err := r.CreateCategory(ctx, db.Actor{}, db.CategoryInput{Name: "Fantasy"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = r.CreateBook(ctx, db.Actor{}, db.BookInput{
		Title: "A Game of Thrones", ISBN: "9780553103540", Price: 9.99,
		CategoryIDs: []string{cat.ID, "00000000-0000-0000-0000-000000000000"},
	})
	var ve *db.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError for unknown category, got %v", err)
	}

	// 整个事务回滚
	var n int64
	r.DB.Model(&models.Book{}).Count(&n)
	if n != 0 {
		t.Errorf("Expected no book written, got %d", n)
	}
}
