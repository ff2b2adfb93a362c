package hospital

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"time"

	"Gin_postgres_redis_library_dashboard/db"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 200

func Migrate(g *gorm.DB) error {
	return g.AutoMigrate(allModels...)
}

type Options struct {
	Rand       *rand.Rand
	Now        time.Time
	Reset      bool // 先清空所有 hms_ 表
	BcryptCost int
}

// Seed 角色、科室、用户按自然键 upsert；其余数据只在病房为空时写入
func Seed(ctx context.Context, g *gorm.DB, o Options) (*Dataset, error) {
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Now.IsZero() {
		o.Now = time.Now().UTC()
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	if err := Migrate(g.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	ds := Generate(o.Rand, o.Now)
	if err := hashPasswords(ds.Users, o.BcryptCost); err != nil {
		return nil, err
	}

	err := g.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if o.Reset {
			if err := reset(tx); err != nil {
				return err
			}
		}
		var wards int64
		if err := tx.Model(&Ward{}).Count(&wards).Error; err != nil {
			return err
		}
		if wards > 0 {
			return fmt.Errorf("hospital wards present: %w", db.ErrAlreadySeeded)
		}
		if err := upsertIdentities(tx, ds); err != nil {
			return err
		}
		return insertRest(tx, ds)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[seed] hospital: %d staff, %d patients, %d beds, %d attendance rows, %d admissions",
		len(ds.Users)-len(ds.PatientIDs), len(ds.PatientIDs), len(ds.Beds), len(ds.Attendance), len(ds.Admissions))
	return ds, nil
}

// 相同密码只算一次哈希
func hashPasswords(users []User, cost int) error {
	cache := map[string]string{}
	for i := range users {
		pw := users[i].Password
		h, ok := cache[pw]
		if !ok {
			b, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			h = string(b)
			cache[pw] = h
		}
		users[i].PasswordHash = h
	}
	return nil
}

func reset(tx *gorm.DB) error {
	for i := len(allModels) - 1; i >= 0; i-- {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(allModels[i]).Error; err != nil {
			return err
		}
	}
	log.Printf("[seed] hospital tables cleared")
	return nil
}

// upsertIdentities 已存在的行保留原 ID，生成数据里的引用改写为库里的 ID
func upsertIdentities(tx *gorm.DB, ds *Dataset) error {
	assign := clause.AssignmentColumns
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "role_code"}},
		DoUpdates: assign([]string{"name", "description", "access_level", "updated_at"}),
	}).Create(&ds.Roles).Error; err != nil {
		return fmt.Errorf("roles: %w", err)
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dept_code"}},
		DoUpdates: assign([]string{"name", "description", "location", "is_active", "updated_at"}),
	}).Create(&ds.Departments).Error; err != nil {
		return fmt.Errorf("departments: %w", err)
	}

	ids := map[string]string{}
	var roles []Role
	if err := tx.Find(&roles).Error; err != nil {
		return err
	}
	byCode := map[string]string{}
	for _, r := range roles {
		byCode[r.RoleCode] = r.ID
	}
	for i := range ds.Roles {
		ids[ds.Roles[i].ID] = byCode[ds.Roles[i].RoleCode]
		ds.Roles[i].ID = byCode[ds.Roles[i].RoleCode]
	}
	var depts []Department
	if err := tx.Find(&depts).Error; err != nil {
		return err
	}
	byCode = map[string]string{}
	for _, d := range depts {
		byCode[d.DeptCode] = d.ID
	}
	for i := range ds.Departments {
		ids[ds.Departments[i].ID] = byCode[ds.Departments[i].DeptCode]
		ds.Departments[i].ID = byCode[ds.Departments[i].DeptCode]
	}
	for i := range ds.Users {
		u := &ds.Users[i]
		u.RoleID = remap(ids, u.RoleID)
		if u.DepartmentID != nil {
			d := remap(ids, *u.DepartmentID)
			u.DepartmentID = &d
		}
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: assign([]string{"password_hash", "first_name", "last_name", "phone", "date_of_birth",
			"gender", "status", "role_id", "department_id", "updated_at"}),
	}).CreateInBatches(&ds.Users, batchSize).Error; err != nil {
		return fmt.Errorf("users: %w", err)
	}
	emails := make([]string, 0, len(ds.Users))
	for _, u := range ds.Users {
		emails = append(emails, u.Email)
	}
	var stored []User
	if err := tx.Select("id", "email").Where("email IN ?", emails).Find(&stored).Error; err != nil {
		return err
	}
	byEmail := map[string]string{}
	for _, u := range stored {
		byEmail[u.Email] = u.ID
	}
	for i := range ds.Users {
		ids[ds.Users[i].ID] = byEmail[ds.Users[i].Email]
		ds.Users[i].ID = byEmail[ds.Users[i].Email]
	}
	ds.remapReferences(ids)
	return nil
}

func remap(ids map[string]string, id string) string {
	if v, ok := ids[id]; ok && v != "" {
		return v
	}
	return id
}

func remapPtr(ids map[string]string, id *string) *string {
	if id == nil {
		return nil
	}
	v := remap(ids, *id)
	return &v
}

func (ds *Dataset) remapReferences(ids map[string]string) {
	for i := range ds.Requirements {
		ds.Requirements[i].RoleID = remap(ids, ds.Requirements[i].RoleID)
	}
	for i := range ds.Wards {
		ds.Wards[i].DepartmentID = remap(ids, ds.Wards[i].DepartmentID)
	}
	for i := range ds.Beds {
		ds.Beds[i].PatientID = remapPtr(ids, ds.Beds[i].PatientID)
	}
	for i := range ds.WorkingHours {
		ds.WorkingHours[i].StaffID = remap(ids, ds.WorkingHours[i].StaffID)
	}
	for i := range ds.Attendance {
		ds.Attendance[i].StaffID = remap(ids, ds.Attendance[i].StaffID)
	}
	for i := range ds.Admissions {
		a := &ds.Admissions[i]
		a.PatientID = remap(ids, a.PatientID)
		a.AdmittedByID = remap(ids, a.AdmittedByID)
		a.DischargedByID = remapPtr(ids, a.DischargedByID)
	}
	for i := range ds.DoctorRates {
		ds.DoctorRates[i].PatientID = remap(ids, ds.DoctorRates[i].PatientID)
		ds.DoctorRates[i].DoctorID = remap(ids, ds.DoctorRates[i].DoctorID)
	}
	for i := range ds.ServiceRates {
		ds.ServiceRates[i].PatientID = remap(ids, ds.ServiceRates[i].PatientID)
		ds.ServiceRates[i].DepartmentID = remap(ids, ds.ServiceRates[i].DepartmentID)
	}
	for i := range ds.Housekeeping {
		h := &ds.Housekeeping[i]
		h.AssignedToID = remap(ids, h.AssignedToID)
		h.VerifiedByID = remap(ids, h.VerifiedByID)
		h.CreatedByID = remap(ids, h.CreatedByID)
	}
	for i := range ds.ShiftSwaps {
		ds.ShiftSwaps[i].RequesterID = remap(ids, ds.ShiftSwaps[i].RequesterID)
		ds.ShiftSwaps[i].SwapWithID = remapPtr(ids, ds.ShiftSwaps[i].SwapWithID)
	}
	for i := range ds.Resignations {
		ds.Resignations[i].StaffID = remap(ids, ds.Resignations[i].StaffID)
	}
	for code, list := range ds.StaffByRole {
		for i := range list {
			list[i] = remap(ids, list[i])
		}
		ds.StaffByRole[code] = list
	}
	for i := range ds.PatientIDs {
		ds.PatientIDs[i] = remap(ids, ds.PatientIDs[i])
	}
}

func insertRest(tx *gorm.DB, ds *Dataset) error {
	steps := []struct {
		name string
		rows any
		n    int
	}{
		{"staff requirements", &ds.Requirements, len(ds.Requirements)},
		{"wards", &ds.Wards, len(ds.Wards)},
		{"beds", &ds.Beds, len(ds.Beds)},
		{"working hours", &ds.WorkingHours, len(ds.WorkingHours)},
		{"attendance", &ds.Attendance, len(ds.Attendance)},
		{"admissions", &ds.Admissions, len(ds.Admissions)},
		{"doctor ratings", &ds.DoctorRates, len(ds.DoctorRates)},
		{"service ratings", &ds.ServiceRates, len(ds.ServiceRates)},
		{"housekeeping tasks", &ds.Housekeeping, len(ds.Housekeeping)},
		{"shift swap requests", &ds.ShiftSwaps, len(ds.ShiftSwaps)},
		{"resignation requests", &ds.Resignations, len(ds.Resignations)},
	}
	for _, s := range steps {
		if s.n == 0 {
			continue
		}
		if err := tx.CreateInBatches(s.rows, batchSize).Error; err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		log.Printf("[seed] %d %s inserted", s.n, s.name)
	}
	return nil
}

// PrintCredentials 输出演示账号
func PrintCredentials(w io.Writer, ds *Dataset) {
	fmt.Fprintln(w, "Login credentials:")
	for _, line := range ds.Credentials() {
		fmt.Fprintln(w, "  "+line)
	}
}
