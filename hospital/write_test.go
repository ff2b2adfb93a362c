package hospital_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"Gin_postgres_redis_library_dashboard/db"
	"Gin_postgres_redis_library_dashboard/hospital"
	"Gin_postgres_redis_library_dashboard/testutil"

	"golang.org/x/crypto/bcrypt"
)

func seedOptions(seed int64, reset bool) hospital.Options {
	return hospital.Options{
		Rand:       rand.New(rand.NewSource(seed)),
		Now:        time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		Reset:      reset,
		BcryptCost: bcrypt.MinCost,
	}
}

func TestSeedWritesDataset(t *testing.T) {
	g := testutil.SetupTestDB(t)
	ctx := context.Background()

	ds, err := hospital.Seed(ctx, g, seedOptions(1, false))
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	counts := []struct {
		model any
		want  int
	}{
		{&hospital.Role{}, 14},
		{&hospital.Department{}, 14},
		{&hospital.Bed{}, 100},
		{&hospital.User{}, 113},
		{&hospital.Attendance{}, len(ds.Attendance)},
		{&hospital.Admission{}, 20},
		{&hospital.HousekeepingTask{}, len(ds.Housekeeping)},
	}
	for _, c := range counts {
		var n int64
		if err := g.Model(c.model).Count(&n).Error; err != nil {
			t.Fatalf("count: %v", err)
		}
		if int(n) != c.want {
			t.Errorf("%T: expected %d rows, got %d", c.model, c.want, n)
		}
	}

	var u hospital.User
	if err := g.First(&u, "email = ?", "do1@hospital.org").Error; err != nil {
		t.Fatalf("load doctor: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("do123")) != nil {
		t.Errorf("doctor password does not verify")
	}

	if _, err := hospital.Seed(ctx, g, seedOptions(2, false)); !errors.Is(err, db.ErrAlreadySeeded) {
		t.Errorf("expected ErrAlreadySeeded, got %v", err)
	}
}

func TestSeedKeepsExistingIdentities(t *testing.T) {
	g := testutil.SetupTestDB(t)
	ctx := context.Background()
	if err := hospital.Migrate(g); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	now := time.Now().UTC()
	role := hospital.Role{ID: "role-doctor", RoleCode: "DO", Name: "Old Doctor", AccessLevel: 1, CreatedAt: now, UpdatedAt: now}
	if err := g.Create(&role).Error; err != nil {
		t.Fatalf("create role: %v", err)
	}
	doc := hospital.User{ID: "user-doctor", Email: "do1@hospital.org", PasswordHash: "x", Status: "inactive", RoleID: role.ID, CreatedAt: now, UpdatedAt: now}
	if err := g.Create(&doc).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := hospital.Seed(ctx, g, seedOptions(3, false)); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	var got hospital.Role
	if err := g.First(&got, "role_code = ?", "DO").Error; err != nil {
		t.Fatal(err)
	}
	if got.ID != "role-doctor" || got.Name != "Doctor" || got.AccessLevel != 8 {
		t.Errorf("role not upserted in place: %+v", got)
	}
	var u hospital.User
	if err := g.First(&u, "email = ?", "do1@hospital.org").Error; err != nil {
		t.Fatal(err)
	}
	if u.ID != "user-doctor" || u.Status != "active" || u.RoleID != "role-doctor" {
		t.Errorf("user not upserted in place: %+v", u)
	}

	// 所有引用都指向库里存在的用户
	var dangling int64
	g.Model(&hospital.Admission{}).
		Where("admitted_by_id NOT IN (?)", g.Model(&hospital.User{}).Select("id")).
		Count(&dangling)
	if dangling != 0 {
		t.Errorf("%d admissions reference unknown doctors", dangling)
	}
	g.Model(&hospital.WorkingHours{}).
		Where("staff_id NOT IN (?)", g.Model(&hospital.User{}).Select("id")).
		Count(&dangling)
	if dangling != 0 {
		t.Errorf("%d working hour rows reference unknown staff", dangling)
	}
}

func TestSeedResetReplacesData(t *testing.T) {
	g := testutil.SetupTestDB(t)
	ctx := context.Background()
	if _, err := hospital.Seed(ctx, g, seedOptions(4, false)); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	ds, err := hospital.Seed(ctx, g, seedOptions(5, true))
	if err != nil {
		t.Fatalf("reset Seed: %v", err)
	}
	var beds, admissions int64
	g.Model(&hospital.Bed{}).Count(&beds)
	g.Model(&hospital.Admission{}).Count(&admissions)
	if beds != 100 || admissions != int64(len(ds.Admissions)) {
		t.Errorf("expected 100 beds and %d admissions, got %d and %d", len(ds.Admissions), beds, admissions)
	}
}
