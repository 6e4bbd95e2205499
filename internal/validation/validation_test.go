package validation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ratingDTO struct {
	ReservationID FlexInt `json:"reservationId" validate:"required"`
	Rating        int     `json:"rating" validate:"min=1,max=5"`
	Date          string  `json:"date" validate:"omitempty,ymd"`
	Start         string  `json:"startTime" validate:"omitempty,hhmm"`
	Username      string  `json:"username" validate:"omitempty,min=3,username"`
}

func TestStruct_RatingBounds(t *testing.T) {
	for _, tc := range []struct {
		rating int
		ok     bool
	}{{0, false}, {1, true}, {5, true}, {6, false}} {
		err := Struct(ratingDTO{ReservationID: 1, Rating: tc.rating})
		if tc.ok {
			assert.NoError(t, err, "rating %d", tc.rating)
			continue
		}
		var verr *Errors
		require.ErrorAs(t, err, &verr, "rating %d", tc.rating)
		assert.Equal(t, "rating", verr.Fields[0].Field)
	}
}

func TestStruct_MessageListsEveryField(t *testing.T) {
	err := Struct(ratingDTO{Rating: 3, Date: "2024/01/01", Start: "9am", Username: "a b"})
	require.Error(t, err)
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "Validation Error: "))
	assert.Contains(t, msg, "reservationId: Required")
	assert.Contains(t, msg, "date: Invalid date format YYYY-MM-DD")
	assert.Contains(t, msg, "startTime: Invalid time format HH:MM")
	assert.Contains(t, msg, "username: ")
}

func TestFlexInt(t *testing.T) {
	var v struct {
		A FlexInt `json:"a"`
		B FlexInt `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 7, "b": "12"}`), &v))
	assert.EqualValues(t, 7, v.A)
	assert.EqualValues(t, 12, v.B.Int64())

	assert.Error(t, json.Unmarshal([]byte(`{"a": "x"}`), &v))
}

func TestBind(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reservationId":"4","rating":9}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var dto ratingDTO
	err := Bind(c, &dto)
	var verr *Errors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Validation Error: rating: must be less than or equal to 5", err.Error())
	assert.EqualValues(t, 4, dto.ReservationID)
}
