package utils

import "os"

func HasGitRepo(path string) bool {
	gitPath := path + string(os.PathSeparator) + ".git"
	info, err := os.Stat(gitPath)
	return err == nil && info.IsDir()
}
