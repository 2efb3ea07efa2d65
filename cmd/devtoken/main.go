// Command devtoken mints an access token for local development, signed
// with the same HMAC secret the server is started with. With -master it
// prints a fresh hex master key for the server's -k flag instead.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/cryptox"
	"github.com/dmitrijs2005/vaultshare/internal/server/auth"
)

func main() {
	secret := flag.String("secret", "secretKey", "JWT secret key (server -s)")
	user := flag.String("user", "", "user id to put in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token validity")
	master := flag.Bool("master", false, "print a random master key and exit")
	flag.Parse()

	if *master {
		key, err := common.MakeRandHexString(cryptox.KeySize)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(key)
		return
	}

	if *user == "" {
		log.Fatal("-user is required")
	}

	token, err := auth.GenerateToken(*user, []byte(*secret), *ttl)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println(token)
}
