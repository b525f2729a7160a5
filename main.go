package main

import "steam_sheet_enrich/cmd"

func main() {
	cmd.Execute()
}
