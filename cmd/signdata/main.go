// Command rk-signdata builds a validly-signed credential string for manual
// testing against a local server. It needs the deployment secret, so it is
// useless to anyone who could not already forge credentials.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/d1sturb/refkeeper/internal/initdata/initdatatest"
)

func main() {
	secret := flag.String("secret", "", "shared secret (BOT_TOKEN) to sign with (required)")
	id := flag.Int64("id", 1, "principal id")
	firstName := flag.String("first-name", "", "optional first name")
	username := flag.String("username", "", "optional username")
	startParam := flag.String("start-param", "", "optional attribution hint, e.g. ref_7")
	age := flag.Duration("age", 0, "credential age (0 = issued now)")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "missing -secret")
		os.Exit(2)
	}

	raw := initdatatest.Sign([]byte(*secret), initdatatest.Params{
		User: &initdatatest.User{
			ID:        *id,
			FirstName: *firstName,
			Username:  *username,
		},
		IssuedAt:   time.Now().Add(-*age),
		StartParam: *startParam,
	})
	fmt.Println(raw)
}
