package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/logging"
)

// Command is one administrative operation. The concrete types below are
// the only implementations.
type Command interface {
	Kind() string
	validate() error
}

type CreateFamily struct {
	Name string
}

type CreateUser struct {
	Username string
	Password string
	FamilyID string
}

// CreateSecret provisions a signing key pair. Force replaces an existing
// private key.
type CreateSecret struct {
	Force bool
}

type UpdatePassword struct {
	Username string
	Password string
}

func (CreateFamily) Kind() string   { return "CreateFamily" }
func (CreateUser) Kind() string     { return "CreateUser" }
func (CreateSecret) Kind() string   { return "CreateSecret" }
func (UpdatePassword) Kind() string { return "UpdatePassword" }

func required(fields ...[2]string) error {
	for _, f := range fields {
		if f[1] == "" {
			return fmt.Errorf("%w: %s is required", common.ErrValidation, f[0])
		}
	}
	return nil
}

func (c CreateFamily) validate() error { return required([2]string{"name", c.Name}) }

func (c CreateUser) validate() error {
	return required(
		[2]string{"username", c.Username},
		[2]string{"password", c.Password},
		[2]string{"familyId", c.FamilyID},
	)
}

func (CreateSecret) validate() error { return nil }

func (c UpdatePassword) validate() error {
	return required([2]string{"username", c.Username}, [2]string{"password", c.Password})
}

// ControlResult reports what a command created. Only the field matching the
// command is set.
type ControlResult struct {
	Kind     string `json:"kind"`
	FamilyID string `json:"familyId,omitempty"`
	Username string `json:"username,omitempty"`
	KeyID    string `json:"keyId,omitempty"`
}

// Control executes administrative commands.
type Control struct {
	families *FamilyService
	users    *UserService
	keys     *KeyService
	log      logging.Logger
}

func NewControl(families *FamilyService, users *UserService, keys *KeyService, log logging.Logger) *Control {
	return &Control{families: families, users: users, keys: keys, log: log.With("module", "control")}
}

func (c *Control) Execute(ctx context.Context, cmd Command) (*ControlResult, error) {
	if cmd == nil {
		return nil, fmt.Errorf("%w: no command", common.ErrValidation)
	}
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	res := &ControlResult{Kind: cmd.Kind()}
	var err error

	switch cmd := cmd.(type) {
	case CreateFamily:
		f, e := c.families.CreateFamily(ctx, cmd.Name)
		if e == nil {
			res.FamilyID = f.ID
		}
		err = e
	case CreateUser:
		u, e := c.users.CreateUser(ctx, cmd.Username, cmd.Password, cmd.FamilyID)
		if e == nil {
			res.Username = u.Username
		}
		err = e
	case CreateSecret:
		res.KeyID, err = c.keys.CreateSecret(ctx, cmd.Force)
	case UpdatePassword:
		err = c.users.ChangePassword(ctx, cmd.Username, cmd.Password)
		res.Username = cmd.Username
	default:
		err = fmt.Errorf("%w: unknown command %s", common.ErrValidation, cmd.Kind())
	}

	if err != nil {
		c.log.Error(ctx, "control command failed", "command", cmd.Kind(), "error", err)
		return nil, err
	}
	c.log.Info(ctx, "control command done", "command", cmd.Kind())
	return res, nil
}

// controlEvent is the JSON form of a command:
//
//	{"operation":"family","familyName":"Smiths"}
//	{"operation":"user","username":"alice","password":"pw","familyId":"..."}
//	{"operation":"secret","action":"create","force":false}
//	{"operation":"password","username":"alice","password":"pw"}
type controlEvent struct {
	Operation  string `json:"operation"`
	FamilyName string `json:"familyName"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	FamilyID   string `json:"familyId"`
	Action     string `json:"action"`
	Force      bool   `json:"force"`
}

// DecodeCommand parses a JSON control event. Only the fields of the named
// operation are read.
func DecodeCommand(data []byte) (Command, error) {
	var ev controlEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	switch ev.Operation {
	case "family":
		return CreateFamily{Name: ev.FamilyName}, nil
	case "user":
		return CreateUser{Username: ev.Username, Password: ev.Password, FamilyID: ev.FamilyID}, nil
	case "secret":
		switch ev.Action {
		case "", "create":
			return CreateSecret{Force: ev.Force}, nil
		case "rotate":
			return nil, fmt.Errorf("%w: key rotation is not implemented", common.ErrValidation)
		default:
			return nil, fmt.Errorf("%w: unknown secret action %q", common.ErrValidation, ev.Action)
		}
	case "password":
		return UpdatePassword{Username: ev.Username, Password: ev.Password}, nil
	default:
		return nil, fmt.Errorf("%w: unknown operation %q", common.ErrValidation, ev.Operation)
	}
}
