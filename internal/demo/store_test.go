package demo

import (
	"errors"
	"testing"
	"time"
)

func TestMarkPresentDedupesSameDay(t *testing.T) {
	s := NewStore()
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	first, recorded := s.MarkPresent("sub-os", "st-101", 0.9, at)
	if !recorded {
		t.Fatal("first mark not recorded")
	}

	// Same student, same subject, later the same day: the existing mark wins.
	dup, recorded := s.MarkPresent("sub-os", "st-101", 0.7, at.Add(3*time.Hour))
	if recorded {
		t.Fatal("duplicate mark was recorded")
	}
	if dup.ID != first.ID {
		t.Fatal("dedup did not return the existing mark")
	}

	// The next day is a fresh mark.
	if _, recorded := s.MarkPresent("sub-os", "st-101", 0.9, at.AddDate(0, 0, 1)); !recorded {
		t.Fatal("next-day mark rejected")
	}
	// A different subject on the same day is a fresh mark too.
	if _, recorded := s.MarkPresent("sub-db", "st-101", 0.9, at); !recorded {
		t.Fatal("same-day mark for another subject rejected")
	}
}

func TestAddStudentRejectsDuplicateRoll(t *testing.T) {
	s := NewStore()
	if _, err := s.AddStudent(Student{Name: "A", RollNo: "CSE3A-01"}); err != nil {
		t.Fatal(err)
	}
	_, err := s.AddStudent(Student{Name: "B", RollNo: "CSE3A-01"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("error = %v, want ErrDuplicate", err)
	}
}

func TestRosterIsRollOrdered(t *testing.T) {
	s := NewStore()
	if err := Seed(s); err != nil {
		t.Fatal(err)
	}
	roster := s.Roster("sub-os")
	if len(roster) == 0 {
		t.Fatal("empty roster for a seeded subject")
	}
	for i := 1; i < len(roster); i++ {
		if roster[i-1].RollNo >= roster[i].RollNo {
			t.Fatalf("roster out of order at %d: %s then %s", i, roster[i-1].RollNo, roster[i].RollNo)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	s := NewStore()
	if _, err := s.AddUser("ravi", "hunter2-long", "teacher", "Ravi Iyer"); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Authenticate("ravi", "hunter2-long"); !ok {
		t.Fatal("valid credentials rejected")
	}
	if _, ok := s.Authenticate("ravi", "wrong"); ok {
		t.Fatal("wrong password accepted")
	}
	if _, ok := s.Authenticate("nobody", "hunter2-long"); ok {
		t.Fatal("unknown user accepted")
	}
}

func TestAlertsNewestFirstWithLimit(t *testing.T) {
	s := NewStore()
	s.AddAlert("u-1", "first", "info")
	s.AddAlert("u-1", "second", "warning")
	s.AddAlert("u-2", "other user", "info")
	s.AddAlert("u-1", "third", "info")

	alerts := s.AlertsFor("u-1", 2)
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2", len(alerts))
	}
	if alerts[0].Message != "third" || alerts[1].Message != "second" {
		t.Fatalf("order = %s, %s; want newest first", alerts[0].Message, alerts[1].Message)
	}
}
