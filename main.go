package main

import (
	"log"
	"os"
	"time"

	fcm "github.com/NaySoftware/go-fcm"
	"github.com/gbl08ma/sqalx"
	"github.com/jmoiron/sqlx"

	sq "github.com/Masterminds/squirrel"

	"github.com/gbl08ma/keybox"
	"github.com/partsrunner/dispatchd/dataobjects"
	"github.com/partsrunner/dispatchd/dispatch"
	"github.com/partsrunner/dispatchd/routing"
	"github.com/partsrunner/dispatchd/scheduling"
)

var (
	rdb           *sqlx.DB
	sdb           sq.StatementBuilderType
	rootSqalxNode sqalx.Node
	secrets       *keybox.Keybox
	fcmcl         *fcm.FcmClient
	mainLog       = log.New(os.Stdout, "", log.Ldate|log.Ltime)
	routingLog    = log.New(os.Stdout, "routing", log.Ldate|log.Ltime)
	dispatchLog   = log.New(os.Stdout, "dispatch", log.Ldate|log.Ltime)
	webLog        = log.New(os.Stdout, "web", log.Ldate|log.Ltime)

	routingService  *routing.Service
	calendar        *scheduling.BusinessCalendar
	scheduler       *scheduling.Scheduler
	dispatchService *dispatch.Service

	// GitCommit is provided by govvv at compile-time
	GitCommit = "???"
	// BuildDate is provided by govvv at compile-time
	BuildDate = "???"
)

func main() {
	var err error
	mainLog.Println("Server starting, opening keybox...")
	secrets, err = keybox.Open(SecretsPath)
	if err != nil {
		mainLog.Fatalln(err)
	}
	mainLog.Println("Keybox opened")

	mainLog.Println("Opening database...")
	databaseURI, present := secrets.Get("databaseURI")
	if !present {
		mainLog.Fatalln("Database connection string not present in keybox")
	}
	rdb, err = sqlx.Open("postgres", databaseURI)
	if err != nil {
		mainLog.Fatalln(err)
	}
	defer rdb.Close()

	err = rdb.Ping()
	if err != nil {
		mainLog.Fatalln(err)
	}
	rdb.SetMaxOpenConns(MaxDBconnectionPoolSize)
	sdb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(rdb)

	rootSqalxNode, err = sqalx.New(rdb)
	if err != nil {
		mainLog.Fatalln(err)
	}
	mainLog.Println("Database opened")

	routingService = routing.NewService(rootSqalxNode, routingLog)
	calendar = scheduling.NewBusinessCalendar(rootSqalxNode)
	scheduler = scheduling.NewScheduler(rootSqalxNode, calendar, dispatchLog)

	fcmServerKey, present := secrets.Get("firebaseServerKey")
	if !present {
		mainLog.Fatalln("Firebase server key not present in keybox")
	}
	fcmcl = fcm.NewFcmClient(fcmServerKey)

	dispatchService = dispatch.NewService(rootSqalxNode, routingService, scheduler,
		new(FCMNotifier), dispatch.MovementLedger{}, dispatchLog)

	go StatsSender()
	go RouteGraphRebuilder()
	go ScheduledRequestProcessor()
	go APIserver()

	// warm the path cache on boot
	RequestRouteGraphRebuild()

	for {
		if DEBUG {
			printDispatchSummary(rootSqalxNode)
		}
		time.Sleep(1 * time.Minute)
	}
}

func printDispatchSummary(node sqalx.Node) {
	tx, err := node.Beginx()
	if err != nil {
		mainLog.Println(err)
		return
	}
	defer tx.Commit() // read-only tx

	segments, err := dataobjects.GetSegmentsNeedingStops(tx)
	if err != nil {
		mainLog.Println(err)
		return
	}
	if len(segments) > 0 {
		mainLog.Println(len(segments), "segments waiting for manual dispatch")
	}
}
