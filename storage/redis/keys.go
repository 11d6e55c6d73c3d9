package redis

import "fmt"

func schemaStorageKey(namespace string) string {
	return fmt.Sprintf("%s:schemas", namespace)
}

func prefabStorageKey(namespace string) string {
	return fmt.Sprintf("%s:prefabs", namespace)
}
