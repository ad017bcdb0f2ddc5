package demo

import "time"

// Seed populates the store with a small university so every console screen has
// data to show on first run. Demo credentials: admin/admin12345,
// teacher/teacher123, student/student123.
func Seed(s *Store) error {
	admin, err := s.AddUser("admin", "admin12345", "admin", "Asha Verma")
	if err != nil {
		return err
	}
	teacher, err := s.AddUser("teacher", "teacher123", "teacher", "Ravi Iyer")
	if err != nil {
		return err
	}

	cse, err := s.CreateDepartment("Computer Science", "CSE")
	if err != nil {
		return err
	}
	ece, err := s.CreateDepartment("Electronics", "ECE")
	if err != nil {
		return err
	}

	s.mu.Lock()
	cls3a := Class{ID: "cse-3a", Name: "CSE 3A", DepartmentID: cse.ID, Year: 3}
	cls2b := Class{ID: "ece-2b", Name: "ECE 2B", DepartmentID: ece.ID, Year: 2}
	s.classes[cls3a.ID] = cls3a
	s.classes[cls2b.ID] = cls2b

	s.subjects["sub-os"] = Subject{
		ID: "sub-os", Name: "Operating Systems", ClassID: cls3a.ID,
		ClassLabel: cls3a.Name, TeacherID: teacher.ID, TotalClasses: 40,
	}
	s.subjects["sub-db"] = Subject{
		ID: "sub-db", Name: "Databases", ClassID: cls3a.ID,
		ClassLabel: cls3a.Name, TeacherID: teacher.ID, TotalClasses: 36,
	}
	s.subjects["sub-sig"] = Subject{
		ID: "sub-sig", Name: "Signals and Systems", ClassID: cls2b.ID,
		ClassLabel: cls2b.Name, TeacherID: teacher.ID, TotalClasses: 32,
	}
	s.mu.Unlock()

	roster := []Student{
		{ID: "st-101", Name: "Meera Nair", RollNo: "CSE3A-01", Year: "3", Branch: "CSE", Section: "A", ClassID: cls3a.ID},
		{ID: "st-102", Name: "Arjun Pillai", RollNo: "CSE3A-02", Year: "3", Branch: "CSE", Section: "A", ClassID: cls3a.ID},
		{ID: "st-103", Name: "Sara Khan", RollNo: "CSE3A-03", Year: "3", Branch: "CSE", Section: "A", ClassID: cls3a.ID},
		{ID: "st-104", Name: "Dev Patel", RollNo: "CSE3A-04", Year: "3", Branch: "CSE", Section: "A", ClassID: cls3a.ID},
		{ID: "st-201", Name: "Anita Rao", RollNo: "ECE2B-01", Year: "2", Branch: "ECE", Section: "B", ClassID: cls2b.ID},
		{ID: "st-202", Name: "Vikram Shah", RollNo: "ECE2B-02", Year: "2", Branch: "ECE", Section: "B", ClassID: cls2b.ID},
	}
	for _, st := range roster {
		if _, err := s.AddStudent(st); err != nil {
			return err
		}
	}

	if _, err := s.AddUser("student", "student123", "student", "Meera Nair"); err != nil {
		return err
	}

	// A little history so trends and calendars are not empty.
	now := time.Now().UTC()
	for d := 1; d <= 7; d++ {
		day := now.AddDate(0, 0, -d)
		s.MarkPresent("sub-os", "st-101", 0.93, day)
		s.MarkPresent("sub-os", "st-102", 0.88, day)
		if d%2 == 0 {
			s.MarkPresent("sub-os", "st-103", 0.77, day)
		}
	}

	s.AddAlert(admin.ID, "Semester attendance report is ready", "info")
	s.AddAlert(teacher.ID, "CSE 3A attendance below 75% this week", "warning")
	return nil
}
