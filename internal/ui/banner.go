package ui

import "strings"

// bannerLines spells "tasktop" for the welcome screen. Kept as a slice of
// plain strings because the art needs characters a raw literal cannot hold.
var bannerLines = []string{
	" _            _    _              ",
	"| |_ __ _ ___| | _| |_ ___  _ __  ",
	"| __/ _` / __| |/ / __/ _ \\| '_ \\ ",
	"| || (_| \\__ \\   <| || (_) | |_) |",
	" \\__\\__,_|___/_|\\_\\\\__\\___/| .__/ ",
	"                           |_|    ",
}

func banner() string {
	return strings.Join(bannerLines, "\n")
}
