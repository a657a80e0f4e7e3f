package models

type Subject struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Faculty *int64 `json:"faculty,omitempty"`
}

type Student struct {
	ID             int64     `json:"id"`
	User           int64     `json:"user,omitempty"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	DOB            string    `json:"dob,omitempty"` // YYYY-MM-DD
	Gender         string    `json:"gender,omitempty"`
	BloodGroup     string    `json:"blood_group,omitempty"`
	ContactNumber  string    `json:"contact_number,omitempty"`
	Address        string    `json:"address,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	Faculty        *int64    `json:"faculty,omitempty"`
	Subjects       []Subject `json:"subjects,omitempty"`
}

// ProfileUpdate — частичное обновление профиля студентом (PATCH).
// nil-поля не отправляются.
type ProfileUpdate struct {
	FirstName     *string `json:"first_name,omitempty"`
	LastName      *string `json:"last_name,omitempty"`
	DOB           *string `json:"dob,omitempty"`
	Gender        *string `json:"gender,omitempty"`
	BloodGroup    *string `json:"blood_group,omitempty"`
	ContactNumber *string `json:"contact_number,omitempty"`
	Address       *string `json:"address,omitempty"`
}

// StudentInput — создание/замена записи студента преподавателем.
type StudentInput struct {
	User          int64   `json:"user,omitempty"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	DOB           string  `json:"dob,omitempty"`
	Gender        string  `json:"gender,omitempty"`
	BloodGroup    string  `json:"blood_group,omitempty"`
	ContactNumber string  `json:"contact_number,omitempty"`
	Address       string  `json:"address,omitempty"`
	Subjects      []int64 `json:"subjects,omitempty"`
}

// AssignResult — ответ на закрепление студента за преподавателем.
type AssignResult struct {
	Message string   `json:"message,omitempty"`
	Student *Student `json:"student,omitempty"`
}
