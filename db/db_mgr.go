package db

const (
	// collection/table name of saved scenes
	SceneDbName = "scene"
	// unique key column
	SceneKeyName = "key"
)

var (
	// singleton
	// https://github.com/uber-go/guide/blob/master/style.md#prefix-unexported-globals-with-_
	_sceneDb SceneDb
)

func SetSceneDb(sceneDb SceneDb) {
	_sceneDb = sceneDb
}

func GetSceneDb() SceneDb {
	return _sceneDb
}
