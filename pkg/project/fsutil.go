package project

import "os"

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func filepathAbsCwd() (string, error) {
	return os.Getwd()
}
