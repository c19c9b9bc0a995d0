package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/logging"
	"github.com/deemkeen/anancus/account"
	"github.com/deemkeen/anancus/db"
	"github.com/deemkeen/anancus/relation"
	"github.com/deemkeen/anancus/search"
	"github.com/deemkeen/anancus/status"
	"github.com/deemkeen/anancus/suggest"
	"github.com/deemkeen/anancus/tui"
	"github.com/deemkeen/anancus/util"
	"github.com/deemkeen/anancus/web"
)

func main() {

	conf, err := util.ReadConf()
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println("Configuration: ")
	fmt.Println(util.PrettyPrint(conf))

	database, err := db.Open(util.ResolveFilePath("anancus.db"))
	if err != nil {
		log.Fatalln(err)
	}
	defer database.Close()

	keys := account.NewKeyManager(database, conf)
	registry := account.NewRegistry(database, conf, keys)
	exclusions := relation.NewExclusionCache(database, time.Duration(conf.Conf.ExclusionTtl)*time.Minute)
	graph := relation.NewGraph(database, exclusions)
	engine := suggest.NewEngine(database, exclusions)
	index := search.NewLocalIndex(database)
	ranker := search.NewRanker(database, index)
	statuses := status.NewStore(database, index)
	pins := status.NewPins(database, conf.Conf.MaxPins)

	api := &web.API{
		Conf:     conf,
		Registry: registry,
		Graph:    graph,
		Engine:   engine,
		Ranker:   ranker,
		Statuses: statuses,
		Pins:     pins,
	}

	s, err := wish.NewServer(
		wish.WithAddress(fmt.Sprintf("%s:%d", conf.Conf.Host, conf.Conf.SshPort)),
		wish.WithHostKeyPath(".ssh/hostkey"),
		wish.WithPublicKeyAuth(publicKeyHandler),
		wish.WithMiddleware(
			tui.AdminTui(tui.Deps{Db: database, Engine: engine, Ranker: ranker}),
			tui.SessionLogger(),
			logging.Middleware(), // last middleware executed first
		),
	)
	if err != nil {
		log.Fatalln(err)
	}

	startServing(s, api, conf)

}

func startServing(s *ssh.Server, api *web.API, conf *util.AppConfig) {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	log.Printf("Starting SSH server on %s:%d", conf.Conf.Host, conf.Conf.SshPort)
	go func() {
		if err := s.ListenAndServe(); err != nil {
			log.Fatalln(err)
		}
	}()

	go func() {
		if err := web.Router(api); err != nil {
			log.Fatalln(err)
		}
	}()

	<-done
	log.Println("Stopping SSH server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer func() { cancel() }()
	if err := s.Shutdown(ctx); err != nil {
		log.Fatalln(err)
	}
}

func publicKeyHandler(ssh.Context, ssh.PublicKey) bool {
	return true
}
