package rpc

import "time"

// Empty is used where a call has nothing to carry.
type Empty struct{}

type FileInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MimeType    string    `json:"mime_type"`
	FolderID    string    `json:"folder_id,omitempty"`
	Size        int64     `json:"size"`
	HasPassword bool      `json:"has_password"`
	CreatedAt   time.Time `json:"created_at"`
}

type UploadFileRequest struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
	FolderID string `json:"folder_id,omitempty"`
	Password string `json:"password,omitempty"`
	Data     []byte `json:"data"`
}

type UploadFileResponse struct {
	File FileInfo `json:"file"`
}

// DownloadFileRequest downloads an owned file, or a shared one when
// LinkToken is set.
type DownloadFileRequest struct {
	FileID        string `json:"file_id"`
	LinkToken     string `json:"link_token,omitempty"`
	SharePassword string `json:"share_password,omitempty"`
	FilePassword  string `json:"file_password,omitempty"`
}

type DownloadFileResponse struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Data     []byte `json:"data"`
}

type ListFilesResponse struct {
	Files []FileInfo `json:"files"`
}

type DeleteFileRequest struct {
	FileID string `json:"file_id"`
}

type CreateShareGroupRequest struct {
	FileIDs    []string   `json:"file_ids"`
	Password   string     `json:"password,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Recipients []string   `json:"recipients,omitempty"`
}

type CreateShareGroupResponse struct {
	ID        string `json:"id"`
	LinkToken string `json:"link_token"`
}

type ShareGroupInfo struct {
	ID            string     `json:"id"`
	LinkToken     string     `json:"link_token"`
	HasPassword   bool       `json:"has_password"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	DownloadCount int64      `json:"download_count"`
}

type ListShareGroupsResponse struct {
	Groups []ShareGroupInfo `json:"groups"`
}

type DeleteShareGroupRequest struct {
	ID string `json:"id"`
}

type ListSharedFilesRequest struct {
	LinkToken string `json:"link_token"`
	Password  string `json:"password,omitempty"`
}

type ListSharedFilesResponse struct {
	GroupID   string     `json:"group_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Files     []FileInfo `json:"files"`
}

type VerifySharePasswordRequest struct {
	LinkToken string `json:"link_token"`
	Password  string `json:"password"`
}

type VerifySharePasswordResponse struct {
	Valid bool `json:"valid"`
}

// PasswordTarget names a file ("file") or a share group ("share").
type PasswordTarget struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type SetPasswordRequest struct {
	Target   PasswordTarget `json:"target"`
	Password string         `json:"password"`
}

type ChangePasswordRequest struct {
	Target      PasswordTarget `json:"target"`
	OldPassword string         `json:"old_password"`
	NewPassword string         `json:"new_password"`
}

type DeletePasswordRequest struct {
	Target PasswordTarget `json:"target"`
}

type BeginPasswordResetRequest struct {
	Target      PasswordTarget `json:"target"`
	NewPassword string         `json:"new_password"`
}

type BeginPasswordResetResponse struct {
	OperationToken string `json:"operation_token"`
}

type CompletePasswordResetRequest struct {
	OperationToken string `json:"operation_token"`
	Code           string `json:"code"`
}

type CompletePasswordResetResponse struct {
	Target PasswordTarget `json:"target"`
}

type EnrollStepUpResponse struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

type ConfirmStepUpRequest struct {
	Code string `json:"code"`
}

type RotateKeyRequest struct {
	Code string `json:"code"`
}

type RotateKeyResponse struct {
	KeyID string `json:"key_id"`
}

type RevokeKeyRequest struct {
	KeyID string `json:"key_id"`
	Code  string `json:"code"`
}

type KeyInfo struct {
	ID        string     `json:"id"`
	Algorithm string     `json:"algorithm"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	Active    bool       `json:"active"`
}

type ListKeysResponse struct {
	Keys []KeyInfo `json:"keys"`
}
