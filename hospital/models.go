// Package hospital 医院管理系统的演示数据（表名前缀 hms_）
package hospital

import "time"

type Role struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	RoleCode    string    `gorm:"uniqueIndex;size:4;not null" json:"roleCode"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	AccessLevel int       `gorm:"not null" json:"accessLevel"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Department struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	DeptCode    string    `gorm:"uniqueIndex;size:10;not null" json:"deptCode"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"size:100" json:"location"`
	IsActive    bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type StaffRequirement struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	RoleID       string `gorm:"size:36;index;not null" json:"roleId"`
	MinStaff     int    `gorm:"not null" json:"minStaff"`
	ShiftsPerDay int    `gorm:"not null" json:"shiftsPerDay"`
	ShiftType    string `gorm:"size:100" json:"shiftType"`
}

type Ward struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Name         string `gorm:"size:100;not null" json:"name"`
	Description  string `gorm:"type:text" json:"description"`
	Location     string `gorm:"size:100" json:"location"`
	Capacity     int    `gorm:"not null" json:"capacity"`
	DepartmentID string `gorm:"size:36;index" json:"departmentId"`
	IsActive     bool   `gorm:"not null;default:true" json:"isActive"`
}

const (
	BedAvailable   = "available"
	BedOccupied    = "occupied"
	BedMaintenance = "maintenance"
)

type Bed struct {
	ID        string  `gorm:"primaryKey;size:36" json:"id"`
	BedNumber string  `gorm:"size:10;not null;uniqueIndex:idx_hms_ward_bed" json:"bedNumber"`
	Status    string  `gorm:"size:20;not null" json:"status"`
	Notes     string  `gorm:"type:text" json:"notes"`
	WardID    string  `gorm:"size:36;not null;uniqueIndex:idx_hms_ward_bed" json:"wardId"`
	PatientID *string `gorm:"size:36" json:"patientId,omitempty"`
}

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FirstName    string    `gorm:"size:100" json:"firstName"`
	LastName     string    `gorm:"size:100" json:"lastName"`
	Phone        string    `gorm:"size:50" json:"phone"`
	DateOfBirth  string    `gorm:"size:10" json:"dateOfBirth"` // yyyy-mm-dd
	Gender       string    `gorm:"size:10" json:"gender"`
	Status       string    `gorm:"size:20;not null" json:"status"`
	RoleID       string    `gorm:"size:36;index;not null" json:"roleId"`
	DepartmentID *string   `gorm:"size:36;index" json:"departmentId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// 只在生成阶段使用
	Password string `gorm:"-" json:"-"`
	RoleCode string `gorm:"-" json:"-"`
}

type WorkingHours struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	StaffID   string `gorm:"size:36;index;not null" json:"staffId"`
	DayOfWeek int    `gorm:"not null" json:"dayOfWeek"` // 0 = 周日
	StartTime string `gorm:"size:5" json:"startTime"`
	EndTime   string `gorm:"size:5" json:"endTime"`
	IsActive  bool   `json:"isActive"`
}

type Attendance struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	StaffID       string     `gorm:"size:36;index;not null" json:"staffId"`
	CheckInTime   time.Time  `gorm:"index" json:"checkInTime"`
	CheckOutTime  *time.Time `json:"checkOutTime,omitempty"`
	TotalHours    *int       `json:"totalHours,omitempty"`
	OvertimeHours *int       `json:"overtimeHours,omitempty"`
	Status        string     `gorm:"size:20;not null" json:"status"` // present | absent | late
	Notes         *string    `gorm:"type:text" json:"notes,omitempty"`
}

type Admission struct {
	ID                   string     `gorm:"primaryKey;size:36" json:"id"`
	AdmissionNumber      string     `gorm:"uniqueIndex;size:32;not null" json:"admissionNumber"`
	BedNumber            string     `gorm:"size:10" json:"bedNumber"`
	AdmissionDate        time.Time  `json:"admissionDate"`
	DischargeDate        *time.Time `json:"dischargeDate,omitempty"`
	ExpectedStayDuration int        `json:"expectedStayDuration"`
	AdmissionType        string     `gorm:"size:20" json:"admissionType"`
	Status               string     `gorm:"size:20;not null" json:"status"` // admitted | discharged
	Diagnosis            string     `gorm:"type:text" json:"diagnosis"`
	Notes                string     `gorm:"type:text" json:"notes"`
	PatientID            string     `gorm:"size:36;index" json:"patientId"`
	WardID               string     `gorm:"size:36;index" json:"wardId"`
	AdmittedByID         string     `gorm:"size:36" json:"admittedById"`
	DischargedByID       *string    `gorm:"size:36" json:"dischargedById,omitempty"`

	// 生成阶段用于回写床位
	BedID string `gorm:"-" json:"-"`
}

type DoctorRating struct {
	ID          string  `gorm:"primaryKey;size:36" json:"id"`
	PatientID   string  `gorm:"size:36;index" json:"patientId"`
	DoctorID    string  `gorm:"size:36;index" json:"doctorId"`
	Rating      float64 `json:"rating"`
	Review      string  `gorm:"type:text" json:"review"`
	IsAnonymous bool    `json:"isAnonymous"`
	IsVisible   bool    `json:"isVisible"`
}

type ServiceRating struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	PatientID    string  `gorm:"size:36;index" json:"patientId"`
	DepartmentID string  `gorm:"size:36;index" json:"departmentId"`
	ServiceType  string  `gorm:"size:50" json:"serviceType"`
	Rating       float64 `json:"rating"`
	Review       string  `gorm:"type:text" json:"review"`
	IsAnonymous  bool    `json:"isAnonymous"`
	IsVisible    bool    `json:"isVisible"`
}

type HousekeepingTask struct {
	ID               string     `gorm:"primaryKey;size:36" json:"id"`
	TaskType         string     `gorm:"size:50" json:"taskType"`
	LocationType     string     `gorm:"size:50" json:"locationType"`
	Priority         string     `gorm:"size:10" json:"priority"`
	Status           string     `gorm:"size:20" json:"status"`
	ScheduledTime    time.Time  `gorm:"index" json:"scheduledTime"`
	StartTime        *time.Time `json:"startTime,omitempty"`
	CompletionTime   *time.Time `json:"completionTime,omitempty"`
	VerificationTime *time.Time `json:"verificationTime,omitempty"`
	Notes            string     `gorm:"type:text" json:"notes"`
	LocationID       string     `gorm:"size:36;index" json:"locationId"`
	AssignedToID     string     `gorm:"size:36" json:"assignedToId"`
	VerifiedByID     string     `gorm:"size:36" json:"verifiedById"`
	CreatedByID      string     `gorm:"size:36" json:"createdById"`
}

type ShiftSwapRequest struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	RequesterID    string    `gorm:"size:36;index" json:"requesterId"`
	SwapWithID     *string   `gorm:"size:36" json:"swapWithId,omitempty"`
	ShiftDate      time.Time `json:"shiftDate"`
	RequestedShift string    `gorm:"size:20" json:"requestedShift"`
	Status         string    `gorm:"size:20" json:"status"`
}

type ResignationRequest struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"`
	StaffID string `gorm:"size:36;index" json:"staffId"`
	Reason  string `gorm:"type:text" json:"reason"`
	Status  string `gorm:"size:20" json:"status"`
}

func (Role) TableName() string               { return "hms_roles" }
func (Department) TableName() string         { return "hms_departments" }
func (StaffRequirement) TableName() string   { return "hms_staff_requirements" }
func (Ward) TableName() string               { return "hms_wards" }
func (Bed) TableName() string                { return "hms_beds" }
func (User) TableName() string               { return "hms_users" }
func (WorkingHours) TableName() string       { return "hms_staff_working_hours" }
func (Attendance) TableName() string         { return "hms_staff_attendance" }
func (Admission) TableName() string          { return "hms_admissions" }
func (DoctorRating) TableName() string       { return "hms_doctor_ratings" }
func (ServiceRating) TableName() string      { return "hms_service_ratings" }
func (HousekeepingTask) TableName() string   { return "hms_housekeeping_tasks" }
func (ShiftSwapRequest) TableName() string   { return "hms_shift_swap_requests" }
func (ResignationRequest) TableName() string { return "hms_resignation_requests" }

// allModels 迁移顺序，清空时倒序
var allModels = []any{
	&Role{}, &Department{}, &StaffRequirement{}, &Ward{}, &Bed{}, &User{},
	&WorkingHours{}, &Attendance{}, &Admission{}, &DoctorRating{}, &ServiceRating{},
	&HousekeepingTask{}, &ShiftSwapRequest{}, &ResignationRequest{},
}
