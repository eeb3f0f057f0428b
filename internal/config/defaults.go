package config

// defaults returns the default configuration values.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"branch":     "",
		"remote":     "upstream",
		"repository": "",
		"username":   "",
		// changelog: the Markdown file carrying the sentinel markers.
		"changelog": "CHANGELOG.md",
		"dist_dir":  "dist",
		"dry_run":   false,
		// version_cmd: empty means detect from tbump/bump2version/npm
		// config files at runtime.
		"version_cmd":       "",
		"post_version_spec": "",
		"npm_command":       "npm publish",
		"twine_command":     "twine upload",
		"npm_token":         "",
		"resolve_backports": false,
		// links_expire: one week, matching the original link-check cache.
		"links_expire": 604800,
		"links_ignore": []string{"CHANGELOG.md"},
		"output":       "",
	}
}
