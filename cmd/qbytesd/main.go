// Command qbytesd serves files or an origin with byte ranges selected by a "bytes=" query parameter.
package main

import "github.com/advdv/qbytes/qbserve"

func main() {
	qbserve.NewApp[qbserve.BaseEnvironment](nil).Run()
}
