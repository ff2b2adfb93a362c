package hospital

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	PeriodStart = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	PeriodEnd   = time.Date(2025, 3, 1, 23, 59, 59, 0, time.UTC)
)

const (
	TotalWards      = 4
	BedsPerWard     = 25
	TotalPatients   = 50
	TotalAdmissions = 20
)

type roleSeed struct {
	code, name, desc string
	access           int
	staff            int // 0 = 病人
	department       func(i int) string
}

func fixed(code string) func(int) string { return func(int) string { return code } }

var clinical = []string{"ER", "ICU", "SURG", "PEDS", "CARD", "NEURO"}

func rotating(i int) string { return clinical[i%len(clinical)] }

var roleSeeds = []roleSeed{
	{"AD", "Administrator", "System administrator with full access", 10, 2, fixed("ADMIN")},
	{"DO", "Doctor", "Medical practitioner", 8, 8, rotating},
	{"NR", "Nurse", "Nursing staff", 7, 16, rotating},
	{"RC", "Receptionist", "Front desk staff", 5, 4, fixed("ADMIN")},
	{"LT", "Lab Technician", "Laboratory staff", 6, 4, fixed("LAB")},
	{"RA", "Radiologist", "Radiology department staff", 6, 4, fixed("RAD")},
	{"PH", "Pharmacist", "Pharmacy staff", 6, 3, fixed("PHARM")},
	{"CL", "Cleaning Staff", "Housekeeping personnel", 3, 6, fixed("CLEAN")},
	{"IT", "IT Support", "Technical support staff", 7, 2, fixed("IT")},
	{"PA", "Patient", "Hospital patient", 1, 0, nil},
	{"ST", "General Staff", "General hospital staff", 4, 2, fixed("IT")},
	{"EM", "Emergency Staff", "Emergency department staff", 8, 6, fixed("ER")},
	{"IN", "Inventory Staff", "Inventory management staff", 5, 3, fixed("INV")},
	{"FI", "Finance Staff", "Finance department staff", 6, 3, fixed("FIN")},
}

var departmentSeeds = [][4]string{
	{"ADMIN", "Administration", "Hospital administration", "Building A, Floor 1"},
	{"ER", "Emergency", "Emergency department", "Building A, Ground Floor"},
	{"ICU", "Intensive Care Unit", "Critical care unit", "Building B, Floor 2"},
	{"SURG", "Surgery", "Surgical department", "Building B, Floor 3"},
	{"PEDS", "Pediatrics", "Children's healthcare", "Building C, Floor 1"},
	{"CARD", "Cardiology", "Heart care unit", "Building B, Floor 4"},
	{"NEURO", "Neurology", "Neurological care", "Building B, Floor 5"},
	{"RAD", "Radiology", "Imaging services", "Building A, Floor 2"},
	{"LAB", "Laboratory", "Medical testing", "Building A, Floor 2"},
	{"PHARM", "Pharmacy", "Medication dispensary", "Building A, Ground Floor"},
	{"CLEAN", "Housekeeping", "Cleaning services", "Building D, Ground Floor"},
	{"IT", "IT Department", "Technical support", "Building D, Floor 1"},
	{"INV", "Inventory", "Inventory management", "Building D, Floor 2"},
	{"FIN", "Finance", "Financial services", "Building A, Floor 3"},
}

var (
	wardNames = []string{"General Ward", "Surgical Ward", "Pediatric Ward", "Cardiac Ward"}
	wardDepts = []string{"ICU", "SURG", "PEDS", "CARD"}
)

type shift struct{ start, end string }

// 早 / 晚 / 夜
var shifts = []shift{{"08:00", "16:00"}, {"16:00", "00:00"}, {"00:00", "08:00"}}

// Is24x7 三班倒的角色
func Is24x7(code string) bool {
	switch code {
	case "DO", "NR", "RC", "EM":
		return true
	}
	return false
}

// Dataset 一次完整的生成结果，ID 已分配
type Dataset struct {
	Roles        []Role
	Departments  []Department
	Requirements []StaffRequirement
	Wards        []Ward
	Beds         []Bed
	Users        []User
	WorkingHours []WorkingHours
	Attendance   []Attendance
	Admissions   []Admission
	DoctorRates  []DoctorRating
	ServiceRates []ServiceRating
	Housekeeping []HousekeepingTask
	ShiftSwaps   []ShiftSwapRequest
	Resignations []ResignationRequest

	// 角色代码 → 员工 ID，按生成顺序
	StaffByRole map[string][]string
	PatientIDs  []string
}

type generator struct {
	rng   *rand.Rand
	now   time.Time
	ds    *Dataset
	roles map[string]string
	depts map[string]string
}

// Generate 除 ID 外的随机值全部来自 rng
func Generate(rng *rand.Rand, now time.Time) *Dataset {
	g := &generator{
		rng:   rng,
		now:   now,
		ds:    &Dataset{StaffByRole: map[string][]string{}},
		roles: map[string]string{},
		depts: map[string]string{},
	}
	g.rolesAndDepartments()
	g.wardsAndBeds()
	g.users()
	g.workingHours()
	g.attendance()
	g.admissions()
	g.ratings()
	g.housekeeping()
	g.requests()
	return g.ds
}

func (g *generator) intn(min, max int) int { return g.rng.Intn(max-min+1) + min }

func (g *generator) pick(ids []string) string { return ids[g.rng.Intn(len(ids))] }

func (g *generator) between(start, end time.Time) time.Time {
	return start.Add(time.Duration(g.rng.Int63n(int64(end.Sub(start)))))
}

func (g *generator) rating() float64 { return math.Round((1+g.rng.Float64()*4)*10) / 10 }

func (g *generator) rolesAndDepartments() {
	for _, r := range roleSeeds {
		id := uuid.NewString()
		g.roles[r.code] = id
		g.ds.Roles = append(g.ds.Roles, Role{
			ID: id, RoleCode: r.code, Name: r.name, Description: r.desc, AccessLevel: r.access,
			CreatedAt: g.now, UpdatedAt: g.now,
		})
		if r.staff == 0 {
			continue
		}
		shiftsPerDay, shiftType := 1, "8-hour shifts, 5 days a week"
		if Is24x7(r.code) {
			shiftsPerDay, shiftType = 3, "24/7 coverage with 3 shifts"
		}
		g.ds.Requirements = append(g.ds.Requirements, StaffRequirement{
			ID: uuid.NewString(), RoleID: id, MinStaff: r.staff, ShiftsPerDay: shiftsPerDay, ShiftType: shiftType,
		})
	}
	for _, d := range departmentSeeds {
		id := uuid.NewString()
		g.depts[d[0]] = id
		g.ds.Departments = append(g.ds.Departments, Department{
			ID: id, DeptCode: d[0], Name: d[1], Description: d[2], Location: d[3], IsActive: true,
			CreatedAt: g.now, UpdatedAt: g.now,
		})
	}
}

// BedNumber 例如 A01、D25
func BedNumber(ward, n int) string { return fmt.Sprintf("%c%02d", 'A'+ward, n) }

func (g *generator) wardsAndBeds() {
	for i, name := range wardNames {
		w := Ward{
			ID:           uuid.NewString(),
			Name:         name,
			Description:  name + " for patient care",
			Location:     fmt.Sprintf("Building %c, Floor %d", 'A'+i, i+1),
			Capacity:     BedsPerWard,
			DepartmentID: g.depts[wardDepts[i]],
			IsActive:     true,
		}
		g.ds.Wards = append(g.ds.Wards, w)
		for j := 1; j <= BedsPerWard; j++ {
			num := BedNumber(i, j)
			g.ds.Beds = append(g.ds.Beds, Bed{
				ID: uuid.NewString(), BedNumber: num, Status: BedAvailable,
				Notes: fmt.Sprintf("Bed %s in %s", num, name), WardID: w.ID,
			})
		}
	}
}

func (g *generator) users() {
	strp := func(s string) *string { return &s }
	gender := func(i int) string {
		if i%2 == 0 {
			return "male"
		}
		return "female"
	}
	dob := func(base, i int) string {
		return time.Date(base+i, time.Month(i%12+1), i%28+1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	}

	for _, r := range roleSeeds {
		for i := 0; i < r.staff; i++ {
			lower := strings.ToLower(r.code)
			u := User{
				ID:           uuid.NewString(),
				Email:        fmt.Sprintf("%s%d@hospital.org", lower, i+1),
				FirstName:    fmt.Sprintf("%s%dFirst", r.code, i+1),
				LastName:     fmt.Sprintf("%s%dLast", r.code, i+1),
				Phone:        fmt.Sprintf("555-%d-%d", 100+i, 1000+i),
				DateOfBirth:  dob(1980, i),
				Gender:       gender(i),
				Status:       "active",
				RoleID:       g.roles[r.code],
				DepartmentID: strp(g.depts[r.department(i)]),
				CreatedAt:    g.now,
				UpdatedAt:    g.now,
				Password:     lower + "123",
				RoleCode:     r.code,
			}
			g.ds.Users = append(g.ds.Users, u)
			g.ds.StaffByRole[r.code] = append(g.ds.StaffByRole[r.code], u.ID)
		}
	}
	for i := 0; i < TotalPatients; i++ {
		u := User{
			ID:          uuid.NewString(),
			Email:       fmt.Sprintf("patient%d@example.com", i+1),
			FirstName:   fmt.Sprintf("Patient%dFirst", i+1),
			LastName:    fmt.Sprintf("Patient%dLast", i+1),
			Phone:       fmt.Sprintf("555-%d-%d", 200+i, 2000+i),
			DateOfBirth: dob(1950, i),
			Gender:      gender(i),
			Status:      "active",
			RoleID:      g.roles["PA"],
			CreatedAt:   g.now,
			UpdatedAt:   g.now,
			Password:    "patient123",
			RoleCode:    "PA",
		}
		g.ds.Users = append(g.ds.Users, u)
		g.ds.PatientIDs = append(g.ds.PatientIDs, u.ID)
	}
}

func (g *generator) eachStaff(fn func(code string, index int, id string)) {
	for _, r := range roleSeeds {
		for i, id := range g.ds.StaffByRole[r.code] {
			fn(r.code, i, id)
		}
	}
}

func (g *generator) workingHours() {
	g.eachStaff(func(code string, i int, id string) {
		if Is24x7(code) {
			s := shifts[i%3]
			for day := 0; day <= 6; day++ {
				g.ds.WorkingHours = append(g.ds.WorkingHours, WorkingHours{
					ID: uuid.NewString(), StaffID: id, DayOfWeek: day, StartTime: s.start, EndTime: s.end, IsActive: true,
				})
			}
			return
		}
		for day := 1; day <= 5; day++ {
			g.ds.WorkingHours = append(g.ds.WorkingHours, WorkingHours{
				ID: uuid.NewString(), StaffID: id, DayOfWeek: day, StartTime: "09:00", EndTime: "17:00", IsActive: true,
			})
		}
	})
}

func at(day time.Time, hhmm string) time.Time {
	var h, m int
	fmt.Sscanf(hhmm, "%d:%d", &h, &m)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}

// ShiftWindow 某员工当天的上下班时间，跨午夜的班次结束在次日
func ShiftWindow(code string, index int, day time.Time) (time.Time, time.Time) {
	if !Is24x7(code) {
		return at(day, "09:00"), at(day, "17:00")
	}
	s := shifts[index%3]
	start, end := at(day, s.start), at(day, s.end)
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end
}

func (g *generator) attendance() {
	const standardHours = 8
	sick := "Sick leave"
	for day := PeriodStart; day.Before(PeriodEnd); day = day.AddDate(0, 0, 1) {
		weekday := day.Weekday() != time.Saturday && day.Weekday() != time.Sunday
		g.eachStaff(func(code string, i int, id string) {
			if !Is24x7(code) && !weekday {
				return
			}
			// 90% 出勤
			if g.rng.Float64() >= 0.9 {
				g.ds.Attendance = append(g.ds.Attendance, Attendance{
					ID: uuid.NewString(), StaffID: id, CheckInTime: day, Status: "absent", Notes: &sick,
				})
				return
			}
			start, end := ShiftWindow(code, i, day)
			in := start.Add(time.Duration(g.rng.Intn(30)-15) * time.Minute)
			out := end.Add(time.Duration(g.rng.Intn(30)-15) * time.Minute)
			total := int(math.Round(out.Sub(in).Hours()))
			overtime := total - standardHours
			if overtime < 0 {
				overtime = 0
			}
			g.ds.Attendance = append(g.ds.Attendance, Attendance{
				ID: uuid.NewString(), StaffID: id, CheckInTime: in, CheckOutTime: &out,
				TotalHours: &total, OvertimeHours: &overtime, Status: "present",
			})
		})
	}
}

// AdmissionNumber 例如 ADM-20250203-007
func AdmissionNumber(date time.Time, seq int) string {
	return fmt.Sprintf("ADM-%s-%03d", date.Format("20060102"), seq)
}

func (g *generator) admissions() {
	doctors := g.ds.StaffByRole["DO"]
	latest := PeriodEnd.AddDate(0, 0, -3)
	// 每个病人一张不同的床
	beds := g.rng.Perm(len(g.ds.Beds))[:TotalAdmissions]
	for i, bi := range beds {
		bed := &g.ds.Beds[bi]
		patient := g.ds.PatientIDs[i]
		admitted := g.between(PeriodStart, latest)
		stay := g.intn(3, 14)
		discharged := g.rng.Float64() < 0.7

		a := Admission{
			ID:                   uuid.NewString(),
			AdmissionNumber:      AdmissionNumber(admitted, i+1),
			BedNumber:            bed.BedNumber,
			AdmissionDate:        admitted,
			ExpectedStayDuration: stay,
			AdmissionType:        []string{"Emergency", "Planned", "Transfer"}[g.rng.Intn(3)],
			Status:               "admitted",
			Diagnosis:            fmt.Sprintf("Sample diagnosis for patient %d", i+1),
			Notes:                fmt.Sprintf("Admission notes for patient %d", i+1),
			PatientID:            patient,
			WardID:               bed.WardID,
			AdmittedByID:         g.pick(doctors),
			BedID:                bed.ID,
		}
		if discharged {
			out := admitted.AddDate(0, 0, stay)
			if out.After(PeriodEnd) {
				out = PeriodEnd
			}
			by := g.pick(doctors)
			a.Status, a.DischargeDate, a.DischargedByID = "discharged", &out, &by
			bed.Status, bed.PatientID = BedAvailable, nil
		} else {
			p := patient
			bed.Status, bed.PatientID = BedOccupied, &p
		}
		g.ds.Admissions = append(g.ds.Admissions, a)
	}
}

func (g *generator) patientNo(id string) int {
	for i, p := range g.ds.PatientIDs {
		if p == id {
			return i + 1
		}
	}
	return 0
}

func (g *generator) ratings() {
	for _, doc := range g.ds.StaffByRole["DO"] {
		for n := g.intn(1, 5); n > 0; n-- {
			p := g.pick(g.ds.PatientIDs)
			g.ds.DoctorRates = append(g.ds.DoctorRates, DoctorRating{
				ID: uuid.NewString(), PatientID: p, DoctorID: doc, Rating: g.rating(),
				Review:      fmt.Sprintf("Review for doctor from patient %d", g.patientNo(p)),
				IsAnonymous: g.rng.Float64() < 0.3, IsVisible: true,
			})
		}
	}
	for _, d := range g.ds.Departments {
		for n := g.intn(1, 3); n > 0; n-- {
			p := g.pick(g.ds.PatientIDs)
			g.ds.ServiceRates = append(g.ds.ServiceRates, ServiceRating{
				ID: uuid.NewString(), PatientID: p, DepartmentID: d.ID, ServiceType: d.DeptCode + " Service",
				Rating:      g.rating(),
				Review:      fmt.Sprintf("Review for %s department from patient %d", d.DeptCode, g.patientNo(p)),
				IsAnonymous: g.rng.Float64() < 0.3, IsVisible: true,
			})
		}
	}
}

func (g *generator) housekeeping() {
	cleaners, nurses, admins := g.ds.StaffByRole["CL"], g.ds.StaffByRole["NR"], g.ds.StaffByRole["AD"]
	type slot struct{ name, sched, start, done, verified string }
	slots := []slot{
		{"morning", "08:00", "08:15", "09:30", "10:00"},
		{"evening", "18:00", "18:15", "19:30", "20:00"},
	}
	for day := PeriodStart; day.Before(PeriodEnd); day = day.AddDate(0, 0, 1) {
		for _, w := range g.ds.Wards {
			for _, s := range slots {
				start, done, verified := at(day, s.start), at(day, s.done), at(day, s.verified)
				g.ds.Housekeeping = append(g.ds.Housekeeping, HousekeepingTask{
					ID:               uuid.NewString(),
					TaskType:         "Cleaning",
					LocationType:     "Ward",
					Priority:         "normal",
					Status:           "completed",
					ScheduledTime:    at(day, s.sched),
					StartTime:        &start,
					CompletionTime:   &done,
					VerificationTime: &verified,
					Notes:            fmt.Sprintf("Regular %s cleaning of ward", s.name),
					LocationID:       w.ID,
					AssignedToID:     g.pick(cleaners),
					VerifiedByID:     g.pick(nurses),
					CreatedByID:      g.pick(admins),
				})
			}
		}
	}
}

var requestStatuses = []string{"pending", "accepted", "rejected"}

func (g *generator) requests() {
	for i := 0; i < 10; i++ {
		role := "DO"
		if g.rng.Float64() < 0.7 {
			role = "NR"
		}
		ids := g.ds.StaffByRole[role]
		requester := g.pick(ids)
		other := g.pick(ids)
		for other == requester {
			other = g.pick(ids)
		}
		shiftDate := g.between(PeriodStart, PeriodEnd).AddDate(0, 0, g.intn(1, 7))
		status := requestStatuses[g.rng.Intn(3)]

		req := ShiftSwapRequest{
			ID:             uuid.NewString(),
			RequesterID:    requester,
			ShiftDate:      shiftDate,
			RequestedShift: []string{"morning", "afternoon", "night"}[g.rng.Intn(3)],
			Status:         status,
		}
		if status != "pending" {
			req.SwapWithID = &other
		}
		g.ds.ShiftSwaps = append(g.ds.ShiftSwaps, req)
	}
	for i := 0; i < 3; i++ {
		role := []string{"NR", "DO", "RC", "CL"}[g.rng.Intn(4)]
		g.ds.Resignations = append(g.ds.Resignations, ResignationRequest{
			ID:      uuid.NewString(),
			StaffID: g.pick(g.ds.StaffByRole[role]),
			Reason:  fmt.Sprintf("Resignation reason %d", i+1),
			Status:  requestStatuses[g.rng.Intn(3)],
		})
	}
}

// Credentials 每个角色第一个账号的登录信息
func (ds *Dataset) Credentials() []string {
	first := map[string]User{}
	for _, u := range ds.Users {
		if _, ok := first[u.RoleCode]; !ok {
			first[u.RoleCode] = u
		}
	}
	var out []string
	for _, r := range roleSeeds {
		if r.staff == 0 {
			continue
		}
		if u, ok := first[r.code]; ok {
			out = append(out, fmt.Sprintf("%s: %s / %s", r.code, u.Email, u.Password))
		}
	}
	if p, ok := first["PA"]; ok {
		out = append(out, fmt.Sprintf("Patient (PA): %s / %s", p.Email, p.Password))
	}
	return out
}
