package mockbackend

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/hashicorp/go-memdb"
	"golang.org/x/crypto/bcrypt"
)

// Role names used by the backend
const (
	RoleStudent = "STUDENT"
	RoleLead    = "LEAD"
	RoleAdmin   = "ADMIN"
)

const tableStudents = "students"

var studentSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tableStudents: {
			Name: tableStudents,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:         "id",
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.IntFieldIndex{Field: "ID"},
				},
				"username": {
					Name:         "username",
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "Username"},
				},
				"email": {
					Name:         "email",
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "Email", Lowercase: true},
				},
			},
		},
	},
}

var (
	ErrUsernameTaken = errors.New("a user with that username already exists")
	ErrEmailTaken    = errors.New("a user with that email already exists")
)

// Student represents a member account held by the mock backend
type Student struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	RollNo       string `json:"roll_no"`
	Phone        string `json:"phone"`
	Role         string `json:"role"`
	Club         string `json:"club"`
	PasswordHash []byte `json:"-"`
}

// PublicStudent is the representation of a student in the public team directory
type PublicStudent struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	Club      string `json:"club"`
}

// Public returns the public representation of the student
func (student *Student) Public() *PublicStudent {
	return &PublicStudent{
		ID:        student.ID,
		Username:  student.Username,
		FirstName: student.FirstName,
		LastName:  student.LastName,
		Role:      student.Role,
		Club:      student.Club,
	}
}

// StudentCreate is used to create a new student
type StudentCreate struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
	RollNo    string
	Phone     string
	Role      string
	Club      string
}

// studentTable stores students in an in-memory database.
// Stored objects are never modified in place; updates insert a copy.
type studentTable struct {
	db     *memdb.MemDB
	lastID atomic.Int64
}

func newStudentTable() (*studentTable, error) {
	db, err := memdb.NewMemDB(studentSchema)
	if err != nil {
		return nil, err
	}
	return &studentTable{db: db}, nil
}

func (table *studentTable) first(index string, value any) (*Student, error) {
	txn := table.db.Txn(false)
	obj, err := txn.First(tableStudents, index, value)
	if err != nil || obj == nil {
		return nil, err
	}
	return obj.(*Student), nil
}

func (table *studentTable) ByID(id int) (*Student, error) {
	return table.first("id", id)
}

func (table *studentTable) ByUsername(username string) (*Student, error) {
	return table.first("username", username)
}

func (table *studentTable) ByEmail(email string) (*Student, error) {
	return table.first("email", strings.ToLower(email))
}

func (table *studentTable) All() ([]*Student, error) {
	txn := table.db.Txn(false)
	it, err := txn.Get(tableStudents, "id")
	if err != nil {
		return nil, err
	}
	students := []*Student{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		students = append(students, obj.(*Student))
	}
	return students, nil
}

func (table *studentTable) Create(create *StudentCreate) (*Student, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(create.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	role := create.Role
	if role == "" {
		role = RoleStudent
	}

	txn := table.db.Txn(true)
	defer txn.Abort()
	if existing, err := txn.First(tableStudents, "username", create.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}
	if existing, err := txn.First(tableStudents, "email", strings.ToLower(create.Email)); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}

	student := &Student{
		ID:           int(table.lastID.Add(1)),
		Username:     create.Username,
		FirstName:    create.FirstName,
		LastName:     create.LastName,
		Email:        create.Email,
		RollNo:       create.RollNo,
		Phone:        create.Phone,
		Role:         role,
		Club:         create.Club,
		PasswordHash: hash,
	}
	if err := txn.Insert(tableStudents, student); err != nil {
		return nil, err
	}
	txn.Commit()
	return student, nil
}

// Update applies mutate to a copy of the student with the given ID and stores it.
// It returns nil if no such student exists.
func (table *studentTable) Update(id int, mutate func(student *Student) error) (*Student, error) {
	txn := table.db.Txn(true)
	defer txn.Abort()
	obj, err := txn.First(tableStudents, "id", id)
	if err != nil || obj == nil {
		return nil, err
	}
	cpy := *obj.(*Student)
	if err := mutate(&cpy); err != nil {
		return nil, err
	}
	if err := txn.Insert(tableStudents, &cpy); err != nil {
		return nil, err
	}
	txn.Commit()
	return &cpy, nil
}

// Delete deletes the student with the given ID and reports whether it existed
func (table *studentTable) Delete(id int) (bool, error) {
	txn := table.db.Txn(true)
	defer txn.Abort()
	n, err := txn.DeleteAll(tableStudents, "id", id)
	if err != nil {
		return false, err
	}
	txn.Commit()
	return n > 0, nil
}

func checkPassword(student *Student, password string) bool {
	return bcrypt.CompareHashAndPassword(student.PasswordHash, []byte(password)) == nil
}

func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
}
