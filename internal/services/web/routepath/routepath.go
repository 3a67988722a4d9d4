// Package routepath names the web routes and builds their concrete paths.
package routepath

import "net/url"

const (
	Root   = "/"
	Login  = "/login"
	Logout = "/logout"
	Health = "/healthz"
	Static = "/static/"

	PostsPrefix = "/posts/"

	Admin                = "/admin"
	AdminPosts           = "/admin/posts"
	AdminPostsPrefix     = "/admin/posts/"
	AdminDownloads       = "/admin/downloads"
	AdminDownloadsPrefix = "/admin/downloads/"
)

// Post is the public page of one post.
func Post(id string) string {
	return PostsPrefix + url.PathEscape(id)
}

// AdminPostEdit opens the admin panel with post id loaded into the form.
func AdminPostEdit(id string) string {
	return AdminPostsPrefix + url.PathEscape(id) + "/edit"
}

// AdminPostDelete deletes post id.
func AdminPostDelete(id string) string {
	return AdminPostsPrefix + url.PathEscape(id) + "/delete"
}

// AdminDownloadEdit opens the admin panel with download id loaded into the form.
func AdminDownloadEdit(id string) string {
	return AdminDownloadsPrefix + url.PathEscape(id) + "/edit"
}

// AdminDownloadDelete deletes download id.
func AdminDownloadDelete(id string) string {
	return AdminDownloadsPrefix + url.PathEscape(id) + "/delete"
}
