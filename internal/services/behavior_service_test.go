package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestBehaviorService_CreateBehavior(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewBehaviorService(db)

	t.Run("successful creation", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM focus_behaviors WHERE name = \$1\)`).
			WithArgs("Helping Others").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		mock.ExpectQuery("INSERT INTO focus_behaviors").
			WithArgs("Helping Others", "Assisting classmates").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "is_system_default", "is_active"}).
				AddRow(4, "Helping Others", "Assisting classmates", false, true))

		body, _ := json.Marshal(CreateBehaviorRequest{
			Name: "Helping Others", Description: "Assisting classmates",
		})
		r := httptest.NewRequest("POST", "/behaviors", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.CreateBehavior(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate name", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM focus_behaviors WHERE name = \$1\)`).
			WithArgs("Helping Others").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		body, _ := json.Marshal(CreateBehaviorRequest{Name: "Helping Others"})
		r := httptest.NewRequest("POST", "/behaviors", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.CreateBehavior(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		body, _ := json.Marshal(CreateBehaviorRequest{Name: ""})
		r := httptest.NewRequest("POST", "/behaviors", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.CreateBehavior(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBehaviorService_SetMyFocus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewBehaviorService(db)

	withTeacher := func(r *http.Request) *http.Request {
		return r.WithContext(context.WithValue(r.Context(), "userID", 2))
	}

	t.Run("replaces the selection in display order", func(t *testing.T) {
		for _, bid := range []int{3, 1, 2} {
			mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM focus_behaviors WHERE id = \$1\)`).
				WithArgs(bid).
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		}

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM teacher_focus_behaviors WHERE teacher_id = \$1`).
			WithArgs(2).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec("INSERT INTO teacher_focus_behaviors").
			WithArgs(2, 3, 0).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO teacher_focus_behaviors").
			WithArgs(2, 1, 1).
			WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectExec("INSERT INTO teacher_focus_behaviors").
			WithArgs(2, 2, 2).
			WillReturnResult(sqlmock.NewResult(3, 1))
		mock.ExpectCommit()

		body, _ := json.Marshal(SetFocusRequest{BehaviorIDs: []int{3, 1, 2}})
		r := withTeacher(httptest.NewRequest("PUT", "/behaviors/focus", bytes.NewBuffer(body)))
		w := httptest.NewRecorder()

		service.SetMyFocus(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fewer than 3 behaviors rejected", func(t *testing.T) {
		body, _ := json.Marshal(SetFocusRequest{BehaviorIDs: []int{1, 2}})
		r := withTeacher(httptest.NewRequest("PUT", "/behaviors/focus", bytes.NewBuffer(body)))
		w := httptest.NewRecorder()

		service.SetMyFocus(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("more than 5 behaviors rejected", func(t *testing.T) {
		body, _ := json.Marshal(SetFocusRequest{BehaviorIDs: []int{1, 2, 3, 4, 5, 6}})
		r := withTeacher(httptest.NewRequest("PUT", "/behaviors/focus", bytes.NewBuffer(body)))
		w := httptest.NewRecorder()

		service.SetMyFocus(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown behavior id", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM focus_behaviors WHERE id = \$1\)`).
			WithArgs(99).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		body, _ := json.Marshal(SetFocusRequest{BehaviorIDs: []int{99, 1, 2}})
		r := withTeacher(httptest.NewRequest("PUT", "/behaviors/focus", bytes.NewBuffer(body)))
		w := httptest.NewRecorder()

		service.SetMyFocus(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBehaviorService_GetMyFocus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewBehaviorService(db)

	mock.ExpectQuery("SELECT fb.id, fb.name, fb.description").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "is_system_default", "is_active"}).
			AddRow(3, "Teamwork", nil, true, true).
			AddRow(1, "Listening", nil, true, true))

	r := httptest.NewRequest("GET", "/behaviors/focus", nil)
	r = r.WithContext(context.WithValue(r.Context(), "userID", 2))
	w := httptest.NewRecorder()

	service.GetMyFocus(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	behaviors := response["focusBehaviors"].([]interface{})
	assert.Len(t, behaviors, 2)
	// Display order preserved.
	assert.Equal(t, float64(3), behaviors[0].(map[string]interface{})["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
