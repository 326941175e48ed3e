package fileutil

import "os"

var settingsCandidates = []string{"persons-server.hjson", "persons-server.json"}

func FileExists(filename string) bool {
	var info, err = os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// LocateSettingsFilename returns configFilename when given, otherwise the first
// existing default settings file, falling back to the hjson name.
func LocateSettingsFilename(configFilename string) string {
	if configFilename != "" {
		return configFilename
	}
	for _, candidate := range settingsCandidates {
		if FileExists(candidate) {
			return candidate
		}
	}
	return settingsCandidates[0]
}
