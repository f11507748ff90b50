package api

// Shortcut is the server-side resource this CLI manages. All fields are
// server-owned; the client never persists shortcuts locally.
type Shortcut struct {
	UUID            string `json:"uuid"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	Version         string `json:"version"`
	Downloads       int    `json:"downloads"`
	LikesCount      int    `json:"likes_count"`
	SharingURL      string `json:"sharing_url"`
	RequiresIOS26AI bool   `json:"requires_ios26_ai"`
	UpdaterType     string `json:"updater_type"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// Screenshot belongs to exactly one shortcut and is identified by a
// server-assigned ID.
type Screenshot struct {
	ID         int    `json:"id"`
	Filename   string `json:"filename"`
	URL        string `json:"url"`
	UploadedAt string `json:"uploaded_at"`
}

// ShortcutPage is one page of the caller's shortcut collection. Pages are
// never cached; every list call re-fetches.
type ShortcutPage struct {
	Shortcuts   []Shortcut `json:"shortcuts"`
	Total       int        `json:"total"`
	Pages       int        `json:"pages"`
	CurrentPage int        `json:"current_page"`
}

// ShortcutDetails is the full get-by-UUID response.
type ShortcutDetails struct {
	Shortcut     Shortcut       `json:"shortcut"`
	Comments     []string       `json:"comments"`
	Screenshots  []Screenshot   `json:"screenshots"`
	LatestUpdate map[string]any `json:"latest_update,omitempty"`
}

// History is the version history response for one shortcut.
type History struct {
	ShortcutName string         `json:"shortcut_name"`
	ShortcutUUID string         `json:"shortcut_uuid"`
	Changelog    []HistoryEntry `json:"changelog"`
}

// HistoryEntry is one version in a shortcut's changelog.
type HistoryEntry struct {
	Version   string          `json:"version"`
	Date      string          `json:"date"`
	Status    string          `json:"status"`
	Changelog string          `json:"changelog,omitempty"`
	Changes   *HistoryChanges `json:"changes,omitempty"`
}

// HistoryChanges records field-level changes within a history entry.
type HistoryChanges struct {
	Name          string `json:"name,omitempty"`
	NewVersion    string `json:"new_version,omitempty"`
	OldSharingURL string `json:"old_sharing_url,omitempty"`
}

// Message is the generic acknowledgement response used by submit, update and
// delete operations.
type Message struct {
	Message  string `json:"message"`
	UpdateID int    `json:"update_id,omitempty"`
}

// ScreenshotResponse is the upload acknowledgement.
type ScreenshotResponse struct {
	Screenshot Screenshot `json:"screenshot"`
	Message    string     `json:"message,omitempty"`
}

// CreateRequest describes a new shortcut. Only explicitly supplied optional
// fields are serialized into the outgoing payload.
type CreateRequest struct {
	SharingURL      string
	Description     *string
	Category        *string
	RequiresIOS26AI *bool
	UpdaterType     *string

	// AutoSubmit chains a submit call after a successful create. It is never
	// part of the create payload itself.
	AutoSubmit bool
}

func (r CreateRequest) payload() map[string]any {
	data := map[string]any{"sharing_url": r.SharingURL}
	if r.Description != nil {
		data["description"] = *r.Description
	}
	if r.Category != nil {
		data["category"] = *r.Category
	}
	if r.RequiresIOS26AI != nil {
		data["requires_ios26_ai"] = *r.RequiresIOS26AI
	}
	if r.UpdaterType != nil {
		data["updater_type"] = *r.UpdaterType
	}
	return data
}

// UpdateFields holds the updatable fields of a shortcut. A nil field is
// omitted from the request payload entirely, so the server leaves it
// untouched; this is what makes updates partial.
type UpdateFields struct {
	Name            *string
	Description     *string
	SharingURL      *string
	Category        *string
	RequiresIOS26AI *bool
	UpdaterType     *string
	NewVersion      *string
	Changelog       *string
}

// Empty reports whether no field was supplied at all.
func (f UpdateFields) Empty() bool {
	return len(f.payload()) == 0
}

func (f UpdateFields) payload() map[string]any {
	data := map[string]any{}
	if f.Name != nil {
		data["name"] = *f.Name
	}
	if f.Description != nil {
		data["description"] = *f.Description
	}
	if f.SharingURL != nil {
		data["sharing_url"] = *f.SharingURL
	}
	if f.Category != nil {
		data["category"] = *f.Category
	}
	if f.RequiresIOS26AI != nil {
		data["requires_ios26_ai"] = *f.RequiresIOS26AI
	}
	if f.UpdaterType != nil {
		data["updater_type"] = *f.UpdaterType
	}
	if f.NewVersion != nil {
		data["new_version"] = *f.NewVersion
	}
	if f.Changelog != nil {
		data["changelog"] = *f.Changelog
	}
	return data
}
