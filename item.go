package magnus

import "time"

// ItemDescriptor is the authoritative unit returned by a Magnus server
// describing one remote resource. Servers send PascalCase JSON; the api
// package normalizes key casing on decode so these lowercase tags match.
//
// Which actions are valid for an item is signalled purely by the presence
// of the corresponding capability URL; there is no fixed type enum.
// Descriptors are constructed fresh by the server on every listing and are
// never mutated locally.
type ItemDescriptor struct {
	DisplayName string `json:"displayName"`
	Tooltip     string `json:"tooltip,omitempty"`

	// URI is the item's logical path, unique within its server. It may be
	// empty for bare containers that have no addressable content yet.
	URI      string `json:"uri,omitempty"`
	IsFolder bool   `json:"isFolder"`

	// IconURL and IconURLDark are either a symbolic theme-icon token of the
	// form "$(name)" or a remote image URL. IconURLDark is optional; the
	// light icon is substituted when it is absent.
	IconURL     string `json:"iconUrl,omitempty"`
	IconURLDark string `json:"iconUrlDark,omitempty"`

	ID        string `json:"id,omitempty"`
	Guid      string `json:"guid,omitempty"`
	CopyValue string `json:"copyValue,omitempty"`

	// Capability URLs. Relative values are resolved against the server
	// base URL before use.
	ViewURI         string `json:"viewUri,omitempty"`
	EditURI         string `json:"editUri,omitempty"`
	BuildURI        string `json:"buildUri,omitempty"`
	DeleteURI       string `json:"deleteUri,omitempty"`
	CreateFileURI   string `json:"createFileUri,omitempty"`
	CreateFolderURI string `json:"createFolderUri,omitempty"`
	UploadFileURI   string `json:"uploadFileUri,omitempty"`
	UploadFolderURI string `json:"uploadFolderUri,omitempty"`
}

// Capabilities is the set of actions an item descriptor offers, derived
// from which capability URLs are present on it.
type Capabilities struct {
	View         bool
	Edit         bool
	Build        bool
	Delete       bool
	CreateFile   bool
	CreateFolder bool
	UploadFile   bool
	UploadFolder bool
}

// Capabilities derives the capability set from URL presence.
func (d *ItemDescriptor) Capabilities() Capabilities {
	return Capabilities{
		View:         d.ViewURI != "",
		Edit:         d.EditURI != "",
		Build:        d.BuildURI != "",
		Delete:       d.DeleteURI != "",
		CreateFile:   d.CreateFileURI != "",
		CreateFolder: d.CreateFolderURI != "",
		UploadFile:   d.UploadFileURI != "",
		UploadFolder: d.UploadFolderURI != "",
	}
}

// FileStat is the metadata subset exposed for one remote file.
type FileStat struct {
	Size         int64
	CreatedTime  time.Time
	ModifiedTime time.Time
	ReadOnly     bool
}

// ActionResponse is the uniform result of a server-side action request
// (build, delete, create, upload).
type ActionResponse struct {
	ResponseMessage  string `json:"responseMessage"`
	IsAsynchronous   bool   `json:"isAsynchronous"`
	ActionSuccessful bool   `json:"actionSuccessful"`
}
