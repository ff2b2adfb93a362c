// Package seed 生成演示数据
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultLibraryPassword 演示账号的初始密码
const DefaultLibraryPassword = "library123"

var (
	locations      = []string{"Main Shelf", "Back Room", "Display", "Storage"}
	paymentMethods = []string{"cash", "credit_card", "debit_card"}
	txTypes        = []models.TransactionType{models.TxSale, models.TxLoan, models.TxReturn, models.TxPurchase}
)

type authorSeed struct{ name, bio, photo string }

var authorSeeds = []authorSeed{
	{"J.K. Rowling", "British author best known for the Harry Potter series.", "https://example.com/jk_rowling.jpg"},
	{"George R.R. Martin", "American novelist best known for A Song of Ice and Fire.", "https://example.com/grrm.jpg"},
	{"Jane Austen", "English novelist known for her six major novels.", "https://example.com/jane_austen.jpg"},
	{"Stephen King", "American author of horror, supernatural fiction, suspense, and fantasy novels.", "https://example.com/stephen_king.jpg"},
	{"Agatha Christie", "English writer known for her detective novels.", "https://example.com/agatha_christie.jpg"},
	{"Toni Morrison", "American novelist, essayist, book editor, and college professor.", "https://example.com/toni_morrison.jpg"},
	{"Haruki Murakami", "Japanese writer whose books and stories have been bestsellers in Japan and internationally.", "https://example.com/haruki_murakami.jpg"},
	{"Gabriel García Márquez", "Colombian novelist, short-story writer, screenwriter, and journalist.", "https://example.com/gabriel_garcia_marquez.jpg"},
}

var categorySeeds = [][2]string{
	{"Fiction", "Literary works created from the imagination"},
	{"Non-Fiction", "Informational and factual writing"},
	{"Science Fiction", "Fiction dealing with futuristic concepts"},
	{"Fantasy", "Fiction with magical or supernatural elements"},
	{"Mystery", "Fiction dealing with the solution of a crime or puzzle"},
	{"Romance", "Fiction focused on romantic relationships"},
	{"Biography", "Non-fiction account of a person's life"},
	{"History", "Non-fiction about past events"},
	{"Self-Help", "Books aimed at personal improvement"},
	{"Children's", "Books for young readers"},
}

type bookSeed struct {
	title, isbn string
	author      int
	publisher   string
	published   string
	desc, cover string
	price, cost float64
	pages       int
	categories  []int
}

var bookSeeds = []bookSeed{
	{"Harry Potter and the Philosopher's Stone", "9780747532743", 0, "Bloomsbury", "1997-06-26", "The first novel in the Harry Potter series.", "harry_potter_1", 19.99, 10.0, 223, []int{3, 9}},
	{"A Game of Thrones", "9780553103540", 1, "Bantam Spectra", "1996-08-01", "The first novel in A Song of Ice and Fire series.", "got", 24.99, 12.5, 694, []int{3}},
	{"Pride and Prejudice", "9780141439518", 2, "Penguin Classics", "1813-01-28", "A romantic novel by Jane Austen.", "pride_and_prejudice", 14.99, 7.5, 432, []int{0, 5}},
	{"The Shining", "9780385121675", 3, "Doubleday", "1977-01-28", "A horror novel by Stephen King.", "the_shining", 18.99, 9.5, 447, []int{0, 4}},
	{"Murder on the Orient Express", "9780062693662", 4, "HarperCollins", "1934-01-01", "A detective novel by Agatha Christie.", "murder_orient_express", 15.99, 8.0, 256, []int{4}},
	{"Beloved", "9781400033416", 5, "Vintage", "1987-09-02", "A novel by Toni Morrison.", "beloved", 16.99, 8.5, 324, []int{0}},
	{"Norwegian Wood", "9780375704024", 6, "Vintage International", "1987-09-04", "A novel by Haruki Murakami.", "norwegian_wood", 17.99, 9.0, 296, []int{0}},
	{"One Hundred Years of Solitude", "9780060883287", 7, "Harper Perennial", "1967-05-30", "A novel by Gabriel García Márquez.", "one_hundred_years", 18.99, 9.5, 417, []int{0}},
	{"Harry Potter and the Chamber of Secrets", "9780747538486", 0, "Bloomsbury", "1998-07-02", "The second novel in the Harry Potter series.", "harry_potter_2", 19.99, 10.0, 251, []int{3, 9}},
	{"A Clash of Kings", "9780553108033", 1, "Bantam Spectra", "1998-11-16", "The second novel in A Song of Ice and Fire series.", "clash_of_kings", 24.99, 12.5, 761, []int{3}},
	{"Sense and Sensibility", "9780141439662", 2, "Penguin Classics", "1811-10-30", "A novel by Jane Austen.", "sense_and_sensibility", 14.99, 7.5, 409, []int{0, 5}},
	{"It", "9780450411434", 3, "Viking Press", "1986-09-15", "A horror novel by Stephen King.", "it", 22.99, 11.5, 1138, []int{0, 4}},
}

type userSeed struct{ email, first, last, role string }

// 前 3 个是 admin / staff（进货用），其余是顾客
var userSeeds = []userSeed{
	{"admin@library.com", "Admin", "User", models.RoleAdmin},
	{"staff1@library.com", "Staff", "One", models.RoleStaff},
	{"staff2@library.com", "Staff", "Two", models.RoleStaff},
	{"customer1@example.com", "Customer", "One", models.RoleCustomer},
	{"customer2@example.com", "Customer", "Two", models.RoleCustomer},
	{"customer3@example.com", "Customer", "Three", models.RoleCustomer},
	{"customer4@example.com", "Customer", "Four", models.RoleCustomer},
	{"customer5@example.com", "Customer", "Five", models.RoleCustomer},
}

// Library 一次完整的书店演示数据
type Library struct {
	Authors       []models.Author
	Categories    []models.Category
	Books         []models.Book
	BookLinks     []models.BookCategory
	Inventory     []models.Inventory
	Users         []models.User
	Transactions  []models.Transaction
	Items         []models.TransactionItem
	AuditLogs     []models.AuditLog
	Notifications []models.Notification
}

func strp(s string) *string { return &s }

// GenerateLibrary 纯函数：只依赖 rng 和 now
func GenerateLibrary(rng *rand.Rand, now time.Time, passwordHash string) *Library {
	lib := &Library{}

	for _, a := range authorSeeds {
		lib.Authors = append(lib.Authors, models.Author{
			ID: uuid.NewString(), Name: a.name, Biography: a.bio, PhotoURL: strp(a.photo),
			CreatedAt: now, UpdatedAt: now,
		})
	}
	for _, c := range categorySeeds {
		lib.Categories = append(lib.Categories, models.Category{
			ID: uuid.NewString(), Name: c[0], Description: c[1], CreatedAt: now, UpdatedAt: now,
		})
	}

	for _, b := range bookSeeds {
		pub, _ := time.Parse("2006-01-02", b.published)
		pages := b.pages
		book := models.Book{
			ID:              uuid.NewString(),
			Title:           b.title,
			ISBN:            b.isbn,
			AuthorID:        &lib.Authors[b.author].ID,
			Publisher:       b.publisher,
			PublicationDate: &pub,
			Description:     b.desc,
			CoverImageURL:   strp("https://example.com/" + b.cover + ".jpg"),
			Price:           b.price,
			CostPrice:       b.cost,
			PageCount:       &pages,
			Language:        "English",
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		lib.Books = append(lib.Books, book)
		for _, ci := range b.categories {
			lib.BookLinks = append(lib.BookLinks, models.BookCategory{BookID: book.ID, CategoryID: lib.Categories[ci].ID})
		}

		// 数量 1-50，阈值 5-14，最近 30 天内补过货
		restock := now.AddDate(0, 0, -rng.Intn(30))
		inv := models.Inventory{
			ID:              uuid.NewString(),
			BookID:          book.ID,
			Quantity:        rng.Intn(50) + 1,
			Threshold:       rng.Intn(10) + 5,
			Location:        locations[rng.Intn(len(locations))],
			LastRestockDate: &restock,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		inv.Refresh()
		lib.Inventory = append(lib.Inventory, inv)
	}

	for i, u := range userSeeds {
		kind := "Customer"
		if u.role != models.RoleCustomer {
			kind = u.first
		}
		lib.Users = append(lib.Users, models.User{
			ID:           uuid.NewString(),
			Email:        u.email,
			FirstName:    u.first,
			LastName:     u.last,
			Role:         u.role,
			Phone:        strp(fmt.Sprintf("123-456-%04d", 7890+i)),
			Address:      strp(fmt.Sprintf("%d %s St, City, Country", 123+i, kind)),
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	lib.generateTransactions(rng, now)
	lib.generateNotifications(now)
	return lib
}

// 过去 4 个月每天 1-5 笔已完成交易
func (lib *Library) generateTransactions(rng *rand.Rand, now time.Time) {
	staff := lib.Users[:3]
	customers := lib.Users[3:]

	for d := now.AddDate(0, -4, 0); !d.After(now); d = d.AddDate(0, 0, 1) {
		perDay := rng.Intn(5) + 1
		for i := 0; i < perDay; i++ {
			typ := txTypes[rng.Intn(len(txTypes))]
			var user models.User
			if typ == models.TxPurchase {
				user = staff[rng.Intn(len(staff))]
			} else {
				user = customers[rng.Intn(len(customers))]
			}
			at := time.Date(d.Year(), d.Month(), d.Day(), rng.Intn(12)+8, rng.Intn(60), 0, 0, d.Location())

			t := models.Transaction{
				ID:              uuid.NewString(),
				UserID:          user.ID,
				TransactionType: typ,
				Status:          models.StatusCompleted,
				PaymentMethod:   strp(paymentMethods[rng.Intn(len(paymentMethods))]),
				Notes:           strp(fmt.Sprintf("%s transaction", capitalize(string(typ)))),
				CreatedAt:       at,
				UpdatedAt:       at,
			}
			if typ == models.TxLoan {
				due := at.Add(models.LoanPeriod)
				t.DueDate = &due
			}

			n := rng.Intn(3) + 1
			items := make([]models.TransactionItem, 0, n)
			for j := 0; j < n; j++ {
				book := lib.Books[rng.Intn(len(lib.Books))]
				price := book.Price
				if typ == models.TxPurchase {
					price = book.CostPrice
				}
				items = append(items, models.TransactionItem{
					ID:            uuid.NewString(),
					TransactionID: t.ID,
					BookID:        book.ID,
					Quantity:      rng.Intn(3) + 1,
					Price:         price,
					CreatedAt:     at,
					UpdatedAt:     at,
				})
			}
			t.TotalAmount = models.ItemsTotal(items)

			uid := user.ID
			lib.Transactions = append(lib.Transactions, t)
			lib.Items = append(lib.Items, items...)
			lib.AuditLogs = append(lib.AuditLogs, models.AuditLog{
				ID:         uuid.NewString(),
				UserID:     &uid,
				Action:     "Created " + string(typ),
				EntityType: "transaction",
				EntityID:   t.ID,
				Details:    map[string]any{"transaction_id": t.ID, "status": t.Status},
				IPAddress:  "127.0.0.1",
				CreatedAt:  at,
			})
		}
	}
}

func (lib *Library) generateNotifications(now time.Time) {
	add := func(user int, title, msg string, read bool, at time.Time) {
		lib.Notifications = append(lib.Notifications, models.Notification{
			ID: uuid.NewString(), UserID: lib.Users[user].ID, Title: title, Message: msg, IsRead: read, CreatedAt: at,
		})
	}
	add(0, "Low Stock Alert", "Several items are running low on stock. Please check the inventory.", false, now)
	add(0, "New User Registration", "A new customer has registered on the platform.", true, now.AddDate(0, 0, -2))
	add(1, "Overdue Loans", "There are several overdue loans that need attention.", false, now)
	add(2, "New Book Arrivals", "New books have arrived and need to be added to inventory.", false, now)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

type LibraryOptions struct {
	Rand       *rand.Rand
	Now        time.Time
	Reset      bool   // 先清空书店相关表
	Password   string // 空则用 DefaultLibraryPassword
	BcryptCost int
}

// SeedLibrary 目录非空且未要求 Reset 时返回 db.ErrAlreadySeeded
func SeedLibrary(ctx context.Context, g *gorm.DB, o LibraryOptions) (*Library, error) {
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Password == "" {
		o.Password = DefaultLibraryPassword
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), o.BcryptCost)
	if err != nil {
		return nil, err
	}
	lib := GenerateLibrary(o.Rand, o.Now, string(hash))

	err = g.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if o.Reset {
			if err := resetLibrary(tx); err != nil {
				return err
			}
		}
		var n int64
		if err := tx.Model(&models.Book{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return db.ErrAlreadySeeded
		}
		for _, u := range lib.Users {
			var exists int64
			if err := tx.Model(&models.User{}).Where("email = ?", u.Email).Count(&exists).Error; err != nil {
				return err
			}
			if exists > 0 {
				return fmt.Errorf("user %s already exists: %w", u.Email, db.ErrAlreadySeeded)
			}
		}

		steps := []struct {
			name string
			rows any
		}{
			{"authors", &lib.Authors},
			{"categories", &lib.Categories},
			{"books", &lib.Books},
			{"book categories", &lib.BookLinks},
			{"inventory", &lib.Inventory},
			{"users", &lib.Users},
			{"transactions", &lib.Transactions},
			{"transaction items", &lib.Items},
			{"audit logs", &lib.AuditLogs},
			{"notifications", &lib.Notifications},
		}
		for _, s := range steps {
			if err := tx.Omit(clause.Associations).CreateInBatches(s.rows, 200).Error; err != nil {
				return fmt.Errorf("insert %s: %w", s.name, err)
			}
			log.Printf("[seed] %s inserted", s.name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[seed] library: %d books, %d users, %d transactions", len(lib.Books), len(lib.Users), len(lib.Transactions))
	return lib, nil
}

// resetLibrary 按外键顺序清空
func resetLibrary(tx *gorm.DB) error {
	emails := make([]string, 0, len(userSeeds))
	for _, u := range userSeeds {
		emails = append(emails, u.email)
	}
	var seeded []string
	if err := tx.Model(&models.User{}).Where("email IN ?", emails).Pluck("id", &seeded).Error; err != nil {
		return err
	}

	all := []any{
		&models.TransactionItem{}, &models.Transaction{}, &models.BookCategory{},
		&models.Inventory{}, &models.Book{}, &models.Category{}, &models.Author{},
	}
	for _, m := range all {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			return err
		}
	}
	if len(seeded) > 0 {
		for _, m := range []any{&models.Notification{}, &models.Credential{}} {
			if err := tx.Where("user_id IN ?", seeded).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id IN ?", seeded).Delete(&models.AuditLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", seeded).Delete(&models.User{}).Error; err != nil {
			return err
		}
	}
	log.Printf("[seed] library tables cleared")
	return nil
}
