// filepath: internal/seedplan/models.go
package seedplan

// Plan is the root struct for parsing a TOML seed plan.
type Plan struct {
	Roles    []PlanRole    `toml:"role"`
	Services []PlanService `toml:"service"`
	Users    []PlanUser    `toml:"user"`
}

// PlanRole is a [[role]] entry. A zero id lets SQLite pick one.
type PlanRole struct {
	ID   int64  `toml:"id,omitempty"`
	Name string `toml:"name"`
}

// PlanService is a [[service]] entry.
type PlanService struct {
	Code           string `toml:"code"`
	Nom            string `toml:"nom"`
	Description    string `toml:"description,omitempty"`
	Actif          bool   `toml:"actif"`
	Ordre          int    `toml:"ordre,omitempty"`
	HasArchivePage bool   `toml:"has_archive_page"`
	ArchiveIcon    string `toml:"archive_icon,omitempty"`
	ArchiveColor   string `toml:"archive_color,omitempty"`
}

// PlanUser is a [[user]] entry; Role is a role name.
type PlanUser struct {
	Name     string `toml:"name"`
	Email    string `toml:"email"`
	Role     string `toml:"role"`
	Password string `toml:"password"`
}

// Report sums up what Apply changed.
type Report struct {
	RolesCreated    int
	ServicesCreated int
	UsersCreated    int
	RolesUpdated    int
	Skipped         int
	Generated       map[string]string
	PasswordsClear  bool
}
