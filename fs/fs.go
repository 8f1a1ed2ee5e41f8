// Package appfs embeds the files shipped inside the binaries: database migrations, email templates, prompts and the common passwords list.
package appfs

import "embed"

//go:embed migrations/*.sql templates/email/* prompts/* passwords/*
var FS embed.FS
