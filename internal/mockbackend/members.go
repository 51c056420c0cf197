package mockbackend

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skybi/portal-client/internal/mockbackend/schema"
)

type studentUpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	RollNo    *string `json:"roll_no"`
	Phone     *string `json:"phone"`
	Role      *string `json:"role"`
	Club      *string `json:"club"`
}

var validRoles = map[string]bool{
	RoleStudent: true,
	RoleLead:    true,
	RoleAdmin:   true,
}

func (service *Service) studentFromPath(writer http.ResponseWriter, request *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(request, "id"))
	if err != nil {
		service.writer.WriteJSONCode(writer, http.StatusNotFound, schema.ErrNotFound)
		return 0, false
	}
	return id, true
}

// EndpointGetPublicStudents handles the 'GET /students/public/' endpoint
func (service *Service) EndpointGetPublicStudents(writer http.ResponseWriter, _ *http.Request) {
	students, err := service.students.All()
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	public := make([]*PublicStudent, 0, len(students))
	for _, student := range students {
		public = append(public, student.Public())
	}
	service.writer.WriteJSON(writer, public)
}

// EndpointGetStudents handles the 'GET /students/' endpoint
func (service *Service) EndpointGetStudents(writer http.ResponseWriter, _ *http.Request) {
	students, err := service.students.All()
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	service.writer.WriteJSON(writer, students)
}

// EndpointGetStudent handles the 'GET /students/{id}' endpoint
func (service *Service) EndpointGetStudent(writer http.ResponseWriter, request *http.Request) {
	id, ok := service.studentFromPath(writer, request)
	if !ok {
		return
	}
	student, err := service.students.ByID(id)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if student == nil {
		service.writer.WriteJSONCode(writer, http.StatusNotFound, schema.ErrNotFound)
		return
	}
	service.writer.WriteJSON(writer, student)
}

// EndpointEditStudent handles the 'PATCH /students/{id}' endpoint
func (service *Service) EndpointEditStudent(writer http.ResponseWriter, request *http.Request) {
	id, ok := service.studentFromPath(writer, request)
	if !ok {
		return
	}
	body, errs, err := schema.UnmarshalBody[studentUpdateRequest](request)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if errs != nil {
		service.writer.WriteFieldErrors(writer, errs)
		return
	}

	errs = schema.FieldErrors{}
	if body.Role != nil && !validRoles[*body.Role] {
		errs.Add("role", "\""+*body.Role+"\" is not a valid choice.")
	}
	if body.Email != nil {
		if strings.TrimSpace(*body.Email) == "" {
			errs.Add("email", "This field may not be blank.")
		} else if existing, err := service.students.ByEmail(*body.Email); err != nil {
			service.writer.WriteInternalError(writer, err)
			return
		} else if existing != nil && existing.ID != id {
			errs.Add("email", "A user with that email already exists.")
		}
	}
	if len(errs) > 0 {
		service.writer.WriteFieldErrors(writer, errs)
		return
	}

	student, err := service.students.Update(id, func(student *Student) error {
		assign(&student.FirstName, body.FirstName)
		assign(&student.LastName, body.LastName)
		assign(&student.Email, body.Email)
		assign(&student.RollNo, body.RollNo)
		assign(&student.Phone, body.Phone)
		assign(&student.Role, body.Role)
		assign(&student.Club, body.Club)
		return nil
	})
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if student == nil {
		service.writer.WriteJSONCode(writer, http.StatusNotFound, schema.ErrNotFound)
		return
	}
	service.writer.WriteJSON(writer, student)
}

// EndpointDeleteStudent handles the 'DELETE /students/{id}' endpoint
func (service *Service) EndpointDeleteStudent(writer http.ResponseWriter, request *http.Request) {
	id, ok := service.studentFromPath(writer, request)
	if !ok {
		return
	}
	deleted, err := service.students.Delete(id)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if !deleted {
		service.writer.WriteJSONCode(writer, http.StatusNotFound, schema.ErrNotFound)
		return
	}
	service.tokens.RemoveWhere(func(_ [64]byte, studentID int) bool {
		return studentID == id
	})
	writer.WriteHeader(http.StatusNoContent)
}

func assign(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}
