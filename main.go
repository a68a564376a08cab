// SPDX-License-Identifier: MPL-2.0

package main

import cmd "nblab-cli/cmd/nblab"

func main() {
	cmd.Execute()
}
