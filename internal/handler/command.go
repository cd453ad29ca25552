package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/spotlight/userprofile/internal/handler/dto"
	"github.com/spotlight/userprofile/internal/middleware"
	"github.com/spotlight/userprofile/internal/model"
)

// errInvalidCommand marks a request that fails shape validation before it
// reaches the service.
var errInvalidCommand = errors.New("invalid command")

// parseCommand validates a command request and converts it to a model.Command
// addressed to pathUserID. The body userId may be omitted; when present it
// must match the path.
func parseCommand(req dto.CommandRequest, pathUserID string) (model.Command, error) {
	userID := req.UserID
	if userID == "" {
		userID = pathUserID
	}
	if userID != pathUserID {
		return model.Command{}, fmt.Errorf("%w: userId %q does not match path", errInvalidCommand, req.UserID)
	}
	if err := middleware.ValidateUserID(userID); err != nil {
		return model.Command{}, fmt.Errorf("%w: %v", errInvalidCommand, err)
	}

	if req.Type == "" {
		return model.Command{}, fmt.Errorf("%w: type is required", errInvalidCommand)
	}
	op, err := model.ParseOperation(req.Type)
	if err != nil {
		return model.Command{}, fmt.Errorf("%w: unknown type %q", errInvalidCommand, req.Type)
	}

	props, err := decodeProperties(req.Properties)
	if err != nil {
		return model.Command{}, err
	}
	if err := middleware.ValidatePropertyCount(len(props)); err != nil {
		return model.Command{}, fmt.Errorf("%w: %v", errInvalidCommand, err)
	}

	for name, value := range props {
		if err := middleware.ValidatePropertyName(name); err != nil {
			return model.Command{}, fmt.Errorf("%w: %v", errInvalidCommand, err)
		}
		switch op {
		case model.OperationIncrement:
			if !isIntegerValue(value) {
				return model.Command{}, fmt.Errorf("%w: increment value for %q must be an integer", errInvalidCommand, name)
			}
		case model.OperationCollect:
			if _, ok := value.([]any); !ok {
				return model.Command{}, fmt.Errorf("%w: collect value for %q must be a list", errInvalidCommand, name)
			}
		}
	}

	return model.Command{
		ID:         ulid.Make().String(),
		UserID:     model.UserID(userID),
		Operation:  op,
		Properties: props,
	}, nil
}

// decodeProperties decodes the properties object keeping integer precision.
// A missing or null object yields an empty map.
func decodeProperties(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var props map[string]any
	if err := dec.Decode(&props); err != nil {
		return nil, fmt.Errorf("%w: properties must be an object", errInvalidCommand)
	}
	if props == nil {
		props = map[string]any{}
	}
	return props, nil
}

func isIntegerValue(v any) bool {
	n, ok := v.(json.Number)
	if !ok {
		return false
	}
	_, err := n.Int64()
	return err == nil
}
