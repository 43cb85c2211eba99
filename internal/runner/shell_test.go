package runner

import "testing"

func TestShouldSpawnWithShell_NeverTrue(t *testing.T) {
	platforms := []string{"windows", "linux", "darwin", "freebsd", "", "plan9"}
	commands := []string{
		"",
		"node",
		"/usr/bin/env",
		`C:\Program Files\nodejs\npm.cmd`,
		`C:\tools\build.bat`,
		"build.BAT",
		"script.CMD",
		"run.ps1",
		"install.sh",
		"name with spaces.cmd",
		"a & calc.exe",
		`"quoted.bat"`,
	}
	for _, p := range platforms {
		for _, c := range commands {
			if ShouldSpawnWithShell(c, p) {
				t.Errorf("ShouldSpawnWithShell(%q, %q) = true, want false", c, p)
			}
		}
	}
}
