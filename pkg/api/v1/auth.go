package v1

import (
	"bytes"
	"encoding/json"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the body of /auth/signin and /auth/refresh.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Principal is the body of /user/me.
type Principal struct {
	ID          any      `json:"id,omitempty"`
	Username    string   `json:"username"`
	Role        RoleList `json:"role,omitempty"`
	Roles       RoleList `json:"roles,omitempty"`
	Authorities RoleList `json:"authorities,omitempty"`
}

// RoleList decodes the role shapes seen across backends: a single string,
// a list of strings, or a list of objects carrying "authority", "role" or
// "name".
type RoleList []string

func (r *RoleList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*r = nil
		} else {
			*r = RoleList{single}
		}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(RoleList, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			Authority string `json:"authority"`
			Role      string `json:"role"`
			Name      string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return err
		}
		switch {
		case obj.Authority != "":
			out = append(out, obj.Authority)
		case obj.Role != "":
			out = append(out, obj.Role)
		case obj.Name != "":
			out = append(out, obj.Name)
		}
	}
	*r = out
	return nil
}

// First returns the first role or "".
func (r RoleList) First() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}
