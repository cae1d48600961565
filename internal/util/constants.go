package util

// 考勤日期格式
const DateFormat = "2006-01-02"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 分页
const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

const (
	MimeImage = "image/"
)

var (
	AllowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
)
