// Package propfile parses FlexFX property text.
//
// # File Format
//
// A property file holds one property per line, rendered as six
// whitespace-separated hex values: a command word followed by five payload
// words. There is no header.
//
//	8001 11111111 22222222 33333333 44444444 55555555
//	2121 00000032 00000032 00000032 00000032 00000032
//
// Input ends at end of file or at the first line that has fewer than six
// values or an invalid value. This lets a file carry trailing notes after a
// blank line.
//
// # Usage
//
//	f, err := propfile.Parse("presets.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range f.Properties {
//	    fmt.Println(p)
//	}
//
// Command-line arguments are parsed strictly:
//
//	prop, err := propfile.ParseArgs(os.Args[2:8])
package propfile
