package hospital_test

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"Gin_postgres_redis_library_dashboard/hospital"
)

func generate(t *testing.T) *hospital.Dataset {
	t.Helper()
	return hospital.Generate(rand.New(rand.NewSource(42)), time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
}

func TestGenerateCounts(t *testing.T) {
	ds := generate(t)

	checks := []struct {
		name      string
		got, want int
	}{
		{"roles", len(ds.Roles), 14},
		{"departments", len(ds.Departments), 14},
		{"staff requirements", len(ds.Requirements), 13},
		{"wards", len(ds.Wards), 4},
		{"beds", len(ds.Beds), 100},
		{"users", len(ds.Users), 63 + 50},
		{"patients", len(ds.PatientIDs), 50},
		{"working hours", len(ds.WorkingHours), 34*7 + 29*5},
		{"attendance", len(ds.Attendance), 34*29 + 29*20},
		{"admissions", len(ds.Admissions), 20},
		{"housekeeping", len(ds.Housekeeping), 29 * 4 * 2},
		{"shift swaps", len(ds.ShiftSwaps), 10},
		{"resignations", len(ds.Resignations), 3},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: expected %d, got %d", c.name, c.want, c.got)
		}
	}
	if n := len(ds.DoctorRates); n < 8 || n > 40 {
		t.Errorf("doctor ratings out of range: %d", n)
	}
	if n := len(ds.ServiceRates); n < 14 || n > 42 {
		t.Errorf("service ratings out of range: %d", n)
	}
}

func TestGenerateStaffIdentity(t *testing.T) {
	ds := generate(t)
	emails := map[string]bool{}
	for _, u := range ds.Users {
		if emails[u.Email] {
			t.Fatalf("duplicate email %s", u.Email)
		}
		emails[u.Email] = true
		if u.RoleCode == "PA" {
			if u.DepartmentID != nil {
				t.Errorf("patient %s has a department", u.Email)
			}
			if u.Password != "patient123" {
				t.Errorf("patient password %q", u.Password)
			}
			continue
		}
		if u.DepartmentID == nil {
			t.Errorf("staff %s has no department", u.Email)
		}
		code := strings.ToLower(u.RoleCode)
		if !strings.HasPrefix(u.Email, code) || !strings.HasSuffix(u.Email, "@hospital.org") {
			t.Errorf("unexpected staff email %s", u.Email)
		}
		if u.Password != code+"123" {
			t.Errorf("%s password %q", u.Email, u.Password)
		}
	}
	for _, e := range []string{"ad1@hospital.org", "nr16@hospital.org", "fi3@hospital.org", "patient50@example.com"} {
		if !emails[e] {
			t.Errorf("missing %s", e)
		}
	}
}

func TestBedAndAdmissionNumbers(t *testing.T) {
	if got := hospital.BedNumber(0, 1); got != "A01" {
		t.Errorf("BedNumber(0,1) = %s", got)
	}
	if got := hospital.BedNumber(3, 25); got != "D25" {
		t.Errorf("BedNumber(3,25) = %s", got)
	}
	d := time.Date(2025, 2, 3, 12, 0, 0, 0, time.UTC)
	if got := hospital.AdmissionNumber(d, 7); got != "ADM-20250203-007" {
		t.Errorf("AdmissionNumber = %s", got)
	}
}

func TestAdmissionsOccupyDistinctBeds(t *testing.T) {
	ds := generate(t)
	beds := map[string]hospital.Bed{}
	for _, b := range ds.Beds {
		beds[b.ID] = b
	}
	seen := map[string]bool{}
	occupied := 0
	for _, a := range ds.Admissions {
		if seen[a.BedID] {
			t.Fatalf("bed %s used twice", a.BedNumber)
		}
		seen[a.BedID] = true
		b := beds[a.BedID]
		if b.BedNumber != a.BedNumber || b.WardID != a.WardID {
			t.Errorf("admission %s points at wrong bed", a.AdmissionNumber)
		}
		if a.AdmissionDate.Before(hospital.PeriodStart) || a.AdmissionDate.After(hospital.PeriodEnd.AddDate(0, 0, -3)) {
			t.Errorf("admission date %v out of range", a.AdmissionDate)
		}
		if a.ExpectedStayDuration < 3 || a.ExpectedStayDuration > 14 {
			t.Errorf("stay %d out of range", a.ExpectedStayDuration)
		}
		switch a.Status {
		case "discharged":
			if a.DischargeDate == nil || a.DischargedByID == nil {
				t.Fatalf("discharged admission %s missing discharge data", a.AdmissionNumber)
			}
			if a.DischargeDate.After(hospital.PeriodEnd) {
				t.Errorf("discharge %v after period end", a.DischargeDate)
			}
			if b.Status != hospital.BedAvailable || b.PatientID != nil {
				t.Errorf("bed %s should be free after discharge", b.BedNumber)
			}
		case "admitted":
			occupied++
			if b.Status != hospital.BedOccupied || b.PatientID == nil || *b.PatientID != a.PatientID {
				t.Errorf("bed %s should hold patient", b.BedNumber)
			}
		default:
			t.Errorf("unexpected status %q", a.Status)
		}
	}
	n := 0
	for _, b := range ds.Beds {
		if b.Status == hospital.BedOccupied {
			n++
		}
	}
	if n != occupied {
		t.Errorf("expected %d occupied beds, got %d", occupied, n)
	}
}

func TestAttendanceRules(t *testing.T) {
	ds := generate(t)
	role := map[string]string{}
	for _, u := range ds.Users {
		role[u.ID] = u.RoleCode
	}
	for _, a := range ds.Attendance {
		code := role[a.StaffID]
		day := a.CheckInTime.Weekday()
		if !hospital.Is24x7(code) && (day == time.Saturday || day == time.Sunday) {
			t.Fatalf("%s has weekend attendance", code)
		}
		if a.Status == "absent" {
			if a.CheckOutTime != nil || a.Notes == nil || *a.Notes != "Sick leave" {
				t.Errorf("bad absent row %+v", a)
			}
			continue
		}
		if a.CheckOutTime == nil || !a.CheckOutTime.After(a.CheckInTime) {
			t.Fatalf("check-out must follow check-in: %+v", a)
		}
		if *a.TotalHours < 7 || *a.TotalHours > 9 {
			t.Errorf("total hours %d", *a.TotalHours)
		}
		want := *a.TotalHours - 8
		if want < 0 {
			want = 0
		}
		if *a.OvertimeHours != want {
			t.Errorf("overtime %d, expected %d", *a.OvertimeHours, want)
		}
	}
}

func TestShiftWindowCrossesMidnight(t *testing.T) {
	day := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	start, end := hospital.ShiftWindow("NR", 1, day)
	if start.Hour() != 16 || !end.Equal(day.AddDate(0, 0, 1)) {
		t.Errorf("evening shift %v - %v", start, end)
	}
	start, end = hospital.ShiftWindow("LT", 1, day)
	if start.Hour() != 9 || end.Hour() != 17 {
		t.Errorf("office hours %v - %v", start, end)
	}
}

func TestShiftSwapPartners(t *testing.T) {
	ds := generate(t)
	role := map[string]string{}
	for _, u := range ds.Users {
		role[u.ID] = u.RoleCode
	}
	for _, s := range ds.ShiftSwaps {
		if s.Status == "pending" {
			if s.SwapWithID != nil {
				t.Errorf("pending request has a partner")
			}
			continue
		}
		if s.SwapWithID == nil || *s.SwapWithID == s.RequesterID {
			t.Fatalf("bad swap partner %+v", s)
		}
		if role[*s.SwapWithID] != role[s.RequesterID] {
			t.Errorf("partner role %s != %s", role[*s.SwapWithID], role[s.RequesterID])
		}
	}
}

func TestCredentials(t *testing.T) {
	lines := generate(t).Credentials()
	if len(lines) != 14 {
		t.Fatalf("expected 14 credential lines, got %d", len(lines))
	}
	if lines[0] != "AD: ad1@hospital.org / ad123" {
		t.Errorf("first line %q", lines[0])
	}
	if lines[len(lines)-1] != "Patient (PA): patient1@example.com / patient123" {
		t.Errorf("last line %q", lines[len(lines)-1])
	}
}
