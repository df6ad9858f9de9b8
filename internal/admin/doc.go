// Package admin implements the sitekeeper-admin command: operator account
// creation, on-demand legacy import and media uploads through presigned URLs.
package admin
