package smb

// AccessMask values from MS-SMB2 2.2.13.1.
type AccessMask uint32

const (
	FileReadData        AccessMask = 0x00000001
	FileWriteData       AccessMask = 0x00000002
	FileAppendData      AccessMask = 0x00000004
	FileReadAttributes  AccessMask = 0x00000080
	FileWriteAttributes AccessMask = 0x00000100
	Delete              AccessMask = 0x00010000
	GenericAll          AccessMask = 0x10000000
	GenericExecute      AccessMask = 0x20000000
	GenericWrite        AccessMask = 0x40000000
	GenericRead         AccessMask = 0x80000000
)

// Has reports whether every bit of flag is set.
func (m AccessMask) Has(flag AccessMask) bool { return m&flag == flag }

// CanRead reports whether the mask grants read access to file data.
func (m AccessMask) CanRead() bool {
	return m&(GenericRead|GenericAll|FileReadData) != 0
}

// CanWrite reports whether the mask grants write access to file data.
func (m AccessMask) CanWrite() bool {
	return m&(GenericWrite|GenericAll|FileWriteData|FileAppendData) != 0
}

// FileAttributes values from MS-FSCC 2.6.
type FileAttributes uint32

const (
	FileAttributeReadOnly  FileAttributes = 0x00000001
	FileAttributeHidden    FileAttributes = 0x00000002
	FileAttributeSystem    FileAttributes = 0x00000004
	FileAttributeDirectory FileAttributes = 0x00000010
	FileAttributeArchive   FileAttributes = 0x00000020
	FileAttributeNormal    FileAttributes = 0x00000080
)

func (a FileAttributes) Has(flag FileAttributes) bool { return a&flag == flag }

// ShareAccess values from MS-SMB2 2.2.13.
type ShareAccess uint32

const (
	FileShareRead   ShareAccess = 0x00000001
	FileShareWrite  ShareAccess = 0x00000002
	FileShareDelete ShareAccess = 0x00000004
)

func (s ShareAccess) Has(flag ShareAccess) bool { return s&flag == flag }

// CreateDisposition values from MS-SMB2 2.2.13.
type CreateDisposition uint32

const (
	FileSupersede   CreateDisposition = 0
	FileOpen        CreateDisposition = 1
	FileCreate      CreateDisposition = 2
	FileOpenIf      CreateDisposition = 3
	FileOverwrite   CreateDisposition = 4
	FileOverwriteIf CreateDisposition = 5
)

func (d CreateDisposition) String() string {
	switch d {
	case FileSupersede:
		return "FILE_SUPERSEDE"
	case FileOpen:
		return "FILE_OPEN"
	case FileCreate:
		return "FILE_CREATE"
	case FileOpenIf:
		return "FILE_OPEN_IF"
	case FileOverwrite:
		return "FILE_OVERWRITE"
	case FileOverwriteIf:
		return "FILE_OVERWRITE_IF"
	default:
		return "FILE_DISPOSITION_UNKNOWN"
	}
}

// MayCreate reports whether the disposition creates a missing file.
func (d CreateDisposition) MayCreate() bool {
	return d == FileCreate || d == FileOpenIf || d == FileOverwriteIf || d == FileSupersede
}

// CreateOptions values from MS-SMB2 2.2.13.
type CreateOptions uint32

const (
	FileDirectoryFile    CreateOptions = 0x00000001
	FileWriteThrough     CreateOptions = 0x00000002
	FileNonDirectoryFile CreateOptions = 0x00000040
	FileNoCompression    CreateOptions = 0x00008000
)

func (o CreateOptions) Has(flag CreateOptions) bool { return o&flag == flag }
