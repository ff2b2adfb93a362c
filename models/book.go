package models

import "time"

const (
	AuthorTable       = "authors"
	CategoryTable     = "categories"
	BookTable         = "books"
	BookCategoryTable = "book_categories"
)

type Author struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string    `gorm:"size:255;not null;index" json:"name"`
	Biography string    `gorm:"type:text" json:"biography"`
	PhotoURL  *string   `gorm:"size:500" json:"photoUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Author) TableName() string { return AuthorTable }

type Category struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// 仅列表查询时填充
	BookCount int64 `gorm:"-" json:"bookCount"`
}

func (Category) TableName() string { return CategoryTable }

// BookCategory 多对多关联表
type BookCategory struct {
	BookID     string `gorm:"primaryKey;type:uuid"`
	CategoryID string `gorm:"primaryKey;type:uuid;index"`
}

func (BookCategory) TableName() string { return BookCategoryTable }

type Book struct {
	ID              string     `gorm:"primaryKey;type:uuid" json:"id"`
	Title           string     `gorm:"size:255;not null;index" json:"title"`
	ISBN            string     `gorm:"column:isbn;uniqueIndex;size:20;not null" json:"isbn"`
	AuthorID        *string    `gorm:"type:uuid;index" json:"authorId,omitempty"`
	Publisher       string     `gorm:"size:255" json:"publisher"`
	PublicationDate *time.Time `gorm:"type:date" json:"publicationDate,omitempty"`
	Description     string     `gorm:"type:text" json:"description"`
	CoverImageURL   *string    `gorm:"size:500" json:"coverImageUrl,omitempty"`
	Price           float64    `gorm:"type:numeric(10,2);not null" json:"price"`
	CostPrice       float64    `gorm:"type:numeric(10,2);not null" json:"costPrice"`
	PageCount       *int       `json:"pageCount,omitempty"`
	Language        string     `gorm:"size:50" json:"language"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	Author     *Author    `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"author,omitempty"`
	Categories []Category `gorm:"many2many:book_categories" json:"categories"`
	Inventory  *Inventory `gorm:"foreignKey:BookID" json:"inventory,omitempty"`
}

func (Book) TableName() string { return BookTable }
