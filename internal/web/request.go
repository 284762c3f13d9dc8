package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"rallyrank/internal/util"
)

const maxBodySize = 1 << 16

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their JSON name.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})

	return validate
}

// validateStruct returns a public error listing every invalid field.
func validateStruct(v interface{}) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, v := range fieldErrs {
		messages = append(messages, v.Field()+": "+describeTag(v))
	}

	return util.ErrPublic(strings.Join(messages, "; "))
}

func describeTag(v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return "required"
	case "min":
		return "must be at least " + v.Param()
	case "max":
		return "must be at most " + v.Param()
	default:
		return "invalid (" + v.Tag() + ")"
	}
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return util.ErrPublic(fmt.Sprintf("unable to read body: %s", err))
	}

	return decodeBytes(body, dst)
}

func decodeBytes(body []byte, dst interface{}) error {
	if len(body) == 0 {
		return util.ErrPublic("empty body")
	}

	if err := json.Unmarshal(body, dst); err != nil {
		if msg, ok := util.PublicMessage(err); ok {
			return util.ErrPublic(msg)
		}
		return util.ErrPublic(fmt.Sprintf("invalid JSON body: %s", err))
	}

	return validateStruct(dst)
}

func idParam(r *http.Request) (util.UUIDAsBlob, error) {
	return util.ParseUUIDAsBlob(chi.URLParam(r, "id"))
}

type listQuery struct {
	Limit int `json:"limit" validate:"min=0,max=1000"`
}

func parseListQuery(r *http.Request) (listQuery, error) {
	var q listQuery
	if str := r.URL.Query().Get("limit"); str != "" {
		limit, err := strconv.Atoi(str)
		if err != nil {
			return listQuery{}, util.ErrPublic("limit: must be an integer")
		}
		q.Limit = limit
	}

	return q, validateStruct(q)
}

type createPlayerRequest struct {
	Name string `json:"name" validate:"required"`
}

type createGameRequest struct {
	Player1ID    util.UUIDAsBlob `json:"player1_id" validate:"required"`
	Player2ID    util.UUIDAsBlob `json:"player2_id" validate:"required"`
	Player1Score *int            `json:"player1_score" validate:"required,min=0,max=999"`
	Player2Score *int            `json:"player2_score" validate:"required,min=0,max=999"`
}

type scoresRequest struct {
	Player1Score *int `json:"player1_score" validate:"required,min=0,max=999"`
	Player2Score *int `json:"player2_score" validate:"required,min=0,max=999"`
}
